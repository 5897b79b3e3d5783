package zone

import (
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/quest"
	"github.com/cogoffice/battlezone/engine/gwlog"
)

// Reward returns what clearing the building earns
func (z *Zone) Reward() quest.Reward {
	return quest.Reward{Hood: z.params.Hood, Dept: string(z.params.Dept), Floors: z.params.NumFloors}
}

// grantRewards rewards every toon watching the victory, at most once per toon and encounter
func (z *Zone) grantRewards() {
	reward := z.Reward()
	for _, id := range z.watchers.ToList() {
		if z.rewarded.Contains(id) {
			continue
		}
		z.rewarded.Add(id)
		if t, ok := z.findToon(id); ok {
			z.grantReward(t, reward)
		}
	}
}

func (z *Zone) grantReward(t *avatar.Toon, reward quest.Reward) {
	if z.quests == nil {
		t.GrantReward(reward)
		return
	}
	id, key, encounter := t.ID, t.Key(), z.encounterID
	z.quests.GrantOnce(encounter, key, reward, func(granted bool, err error) {
		if err != nil {
			gwlog.Errorf("%s: %v", z, err)
			return
		}
		if !granted {
			return
		}
		if t, ok := z.findToon(id); ok {
			t.GrantReward(reward)
		}
		z.quests.CogBuildingDefeated(encounter, key, reward, func(err error) {
			if err != nil {
				gwlog.Errorf("%s: %v", z, err)
			}
		})
	})
}
