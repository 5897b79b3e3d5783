package avatar

import (
	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/quest"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
)

// ToonMaxHealth is the laff of a new toon
const ToonMaxHealth = 15

// Replicated fields of toons
const (
	FieldName        = "setName"
	FieldToonDied    = "toonDied"
	FieldGrantReward = "grantReward"
)

// Lobby sends toons into cog buildings
type Lobby interface {
	EnterBuilding(t *Toon, hood string) error
}

// Toon is a player avatar. It is bound to a client and only acts on client requests.
type Toon struct {
	Avatar

	lobby   Lobby
	rewards int
}

// OnInit initializes the toon
func (t *Toon) OnInit() {
	t.initAvatar(attack.FactionToon, ToonMaxHealth)
}

// OnCreated gives the toon its attacks
func (t *Toon) OnCreated() {
	t.GiveAttack(attack.KindHL2Pistol)
	t.GiveAttack(attack.KindHL2Shotgun)
}

// SetLobby sets where EnterBuilding requests go
func (t *Toon) SetLobby(lobby Lobby) {
	t.lobby = lobby
}

// Key returns the name the toon is stored under
func (t *Toon) Key() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID.String()
}

// Rewards returns the number of rewards granted this session
func (t *Toon) Rewards() int {
	return t.rewards
}

// GrantReward tells the client about a reward recorded in the ledger
func (t *Toon) GrantReward(reward quest.Reward) {
	t.rewards++
	gwlog.Infof("%s is granted %s", t, reward)
	t.CallClient(FieldGrantReward, reward.Hood, reward.Dept, reward.Floors)
}

// OnEnterSpace draws the first attack
func (t *Toon) OnEnterSpace() {
	if t.EquippedAttack() == nil {
		t.EquipAttack(attack.KindHL2Pistol)
	}
}

// OnLeaveSpace puts the attack away
func (t *Toon) OnLeaveSpace(space *entity.Space) {
	t.UnEquipAttack()
}

// OnDestroy releases the attacks
func (t *Toon) OnDestroy() {
	t.Avatar.OnDestroy()
}

// OnClientDisconnected removes the toon from the game
func (t *Toon) OnClientDisconnected() {
	gwlog.Infof("%s lost its client, destroying", t)
	t.Destroy()
}

// onHealthZero sends the toon back on its feet: toons are never removed from the fight
func (t *Toon) onHealthZero(info attack.DamageInfo) {
	gwlog.Infof("%s went sad: %s", t, info)
	t.SendUpdate(FieldToonDied, int(info.Attacker))
	t.SetHealth(t.maxHealth)
}

// SetName_Client sets the toon name
func (t *Toon) SetName_Client(name string) {
	t.Name = name
	t.SendUpdate(FieldName, name)
}

// SetPosition_Client reports the client side position of the toon
func (t *Toon) SetPosition_Client(x, y, z float32) {
	t.SetPosition(entity.Vector3{X: entity.Coord(x), Y: entity.Coord(y), Z: entity.Coord(z)})
}

// FireAttack_Client fires the equipped attack along the direction. The origin is the server side position.
func (t *Toon) FireAttack_Client(dx, dy, dz float32) {
	t.fireAttack(entity.Vector3{X: entity.Coord(dx), Y: entity.Coord(dy), Z: entity.Coord(dz)})
}

// ReloadAttack_Client asks the equipped attack to reload
func (t *Toon) ReloadAttack_Client() {
	if atk := t.EquippedAttack(); atk != nil {
		atk.ReloadPress()
	}
}

// EquipAttack_Client switches the equipped attack
func (t *Toon) EquipAttack_Client(kind int) {
	t.EquipAttack(attack.Kind(kind))
}

// ReadyForNextFloor_Client tells the zone the toon is ready to leave the floor
func (t *Toon) ReadyForNextFloor_Client() {
	if arena, ok := ArenaOf(&t.Entity); ok {
		arena.ReadyForNextFloor(t)
	}
}

// LoadedMap_Client tells the zone the client finished loading the floor
func (t *Toon) LoadedMap_Client() {
	if arena, ok := ArenaOf(&t.Entity); ok {
		arena.LoadedMap(t)
	}
}

// EnterSection_Client reports that the toon walked into a section
func (t *Toon) EnterSection_Client(section int) {
	if arena, ok := ArenaOf(&t.Entity); ok {
		arena.EnterSection(t, section)
	}
}

// EnterBuilding_Client asks to fight the cog building of the hood
func (t *Toon) EnterBuilding_Client(hood string) {
	if t.lobby == nil {
		gwlog.Warnf("%s.EnterBuilding %s: no lobby", t, hood)
		return
	}
	if err := t.lobby.EnterBuilding(t, hood); err != nil {
		gwlog.Errorf("%s.EnterBuilding %s: %v", t, hood, err)
	}
}
