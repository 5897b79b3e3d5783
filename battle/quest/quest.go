// Package quest keeps the reward ledger of battle zones and the building progress of toons in the kvdb
package quest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/kvdb"
	"github.com/cogoffice/battlezone/engine/kvdb/types"
	"github.com/pkg/errors"
)

const (
	rewardPrefix   = "reward/"
	buildingPrefix = "quest/"
	buildingInfix  = "/bldg/"
)

// Store is the subset of the kvdb used by quests
type Store interface {
	GetOrPut(key string, val string, callback kvdb.KVDBGetOrPutCallback)
	Put(key string, val string, callback kvdb.KVDBPutCallback)
	GetRange(beginKey string, endKey string, callback kvdb.KVDBGetRangeCallback)
}

// Reward is what a toon gets for clearing a building
type Reward struct {
	Hood   string
	Dept   string
	Floors int
}

func (r Reward) String() string {
	return fmt.Sprintf("Reward<%s|%s|%d floors>", r.Hood, r.Dept, r.Floors)
}

func (r Reward) encode() string {
	return r.Hood + "|" + r.Dept + "|" + strconv.Itoa(r.Floors)
}

func decodeReward(val string) (Reward, error) {
	parts := strings.Split(val, "|")
	if len(parts) != 3 {
		return Reward{}, errors.Errorf("bad reward record %q", val)
	}
	floors, err := strconv.Atoi(parts[2])
	if err != nil {
		return Reward{}, errors.Wrapf(err, "bad reward record %q", val)
	}
	return Reward{Hood: parts[0], Dept: parts[1], Floors: floors}, nil
}

// Manager grants rewards and records quest progress
//
// Callbacks run on the routine the store posts to.
type Manager struct {
	store Store
}

// NewManager creates a quest manager over the store
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func rewardKey(encounterID, avatarKey string) string {
	return rewardPrefix + encounterID + "/" + avatarKey
}

func buildingKey(avatarKey, encounterID string) string {
	return buildingPrefix + avatarKey + buildingInfix + encounterID
}

// GrantOnce records the reward of the encounter for the avatar. granted is false if it was recorded before.
func (m *Manager) GrantOnce(encounterID, avatarKey string, reward Reward, callback func(granted bool, err error)) {
	m.store.GetOrPut(rewardKey(encounterID, avatarKey), reward.encode(), func(oldVal string, err error) {
		if err != nil {
			err = errors.Wrapf(err, "grant %s to %s", reward, avatarKey)
		} else if oldVal != "" {
			gwlog.Warnf("%s of encounter %s was already granted to %s", reward, encounterID, avatarKey)
		}
		if callback != nil {
			callback(err == nil && oldVal == "", err)
		}
	})
}

// CogBuildingDefeated records a cleared building in the avatar's quest progress
func (m *Manager) CogBuildingDefeated(encounterID, avatarKey string, reward Reward, callback func(err error)) {
	m.store.Put(buildingKey(avatarKey, encounterID), reward.encode(), func(err error) {
		if err != nil {
			err = errors.Wrapf(err, "record %s for %s", reward, avatarKey)
		}
		if callback != nil {
			callback(err)
		}
	})
}

// BuildingsDefeated returns the buildings the avatar cleared, ordered by encounter id
func (m *Manager) BuildingsDefeated(avatarKey string, callback func(rewards []Reward, err error)) {
	begin := buildingPrefix + avatarKey + buildingInfix
	end := begin[:len(begin)-1] + "0" // '0' sorts right after '/'
	m.store.GetRange(begin, end, func(items []kvdbtypes.Item, err error) {
		if err != nil {
			callback(nil, errors.Wrapf(err, "read buildings of %s", avatarKey))
			return
		}
		rewards := make([]Reward, 0, len(items))
		for _, item := range items {
			r, err := decodeReward(item.Val)
			if err != nil {
				gwlog.Errorf("%s: %s", item.Key, err)
				continue
			}
			rewards = append(rewards, r)
		}
		callback(rewards, nil)
	})
}
