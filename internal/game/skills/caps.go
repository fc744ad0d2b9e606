package skills

import (
	"math"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// CapAtLevel returns rank updates that bring every skill of r within the caps of
// character level. Class skills here are the character's recorded class skill
// keys plus its granted skills. Used on explicit level-down only.
//
// Postcondition: Returns one update per skill whose ranks exceed its cap, in
// record order.
func CapAtLevel(r *character.Record, skills SkillLookup, level int) []character.SkillRankUpdate {
	classKeys := ruleset.KeySet(r.ClassSkillKeys)
	granted := ruleset.KeySet(r.GrantedSkillKeys)
	excluded := ruleset.KeySet(r.ExcludedSkillKeys)
	var out []character.SkillRankUpdate
	for _, s := range r.Skills {
		def, ok := skills.Skill(s.Key)
		if !ok {
			def = &ruleset.Skill{Key: s.Key, Name: s.Name}
		}
		c := Classify(def, classKeys, granted, excluded)
		limit := float64(MaxRanksAfterLevel(c.IsClassSkill, level))
		if level <= 0 {
			limit = 0
		}
		if s.Ranks > limit {
			out = append(out, character.SkillRankUpdate{SkillID: s.ID, Ranks: math.Max(limit, 0)})
		}
	}
	return out
}
