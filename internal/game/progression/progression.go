package progression

import "github.com/cory-johannsen/srd/internal/game/ruleset"

// BaseAttack returns the base attack bonus of one class at level.
//
// Good = level; average = floor(level*3/4); poor = floor(level/2).
func BaseAttack(p ruleset.BABProgression, level int) int {
	if level <= 0 {
		return 0
	}
	switch p {
	case ruleset.BABGood:
		return level
	case ruleset.BABAverage:
		return level * 3 / 4
	default:
		return level / 2
	}
}

// Save returns the base save of one class at level.
//
// Good = 2 + floor(level/2); poor = floor(level/3).
func Save(p ruleset.SaveProgression, level int) int {
	if level <= 0 {
		return 0
	}
	if p == ruleset.SaveGood {
		return 2 + level/2
	}
	return level / 3
}

// DefaultGeneralFeatLevels are the character levels that grant a general feat.
var DefaultGeneralFeatLevels = []int{1, 3, 6, 9, 12, 15, 18}

// DefaultFighterBonusFeatLevels are the fighter class levels that grant a bonus feat.
var DefaultFighterBonusFeatLevels = []int{1, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20}

// FeatLevels decides which level-ups grant a feat choice.
type FeatLevels struct {
	General      []int
	FighterBonus []int
}

// DefaultFeatLevels returns the standard feat level schedule.
func DefaultFeatLevels() FeatLevels {
	return FeatLevels{
		General:      append([]int(nil), DefaultGeneralFeatLevels...),
		FighterBonus: append([]int(nil), DefaultFighterBonusFeatLevels...),
	}
}

// GainsGeneralFeat reports whether reaching characterLevel grants a general feat.
func (f FeatLevels) GainsGeneralFeat(characterLevel int) bool {
	return contains(f.General, characterLevel)
}

// GainsFighterBonusFeat reports whether reaching fighter classLevel grants a bonus feat.
func (f FeatLevels) GainsFighterBonusFeat(classLevel int) bool {
	return contains(f.FighterBonus, classLevel)
}

// GainsFeat reports whether a level-up grants a feat choice. isFighter selects
// the fighter bonus schedule for classLevelAfter; the general schedule is
// always checked against characterLevelAfter.
func (f FeatLevels) GainsFeat(characterLevelAfter int, isFighter bool, classLevelAfter int) bool {
	if f.GainsGeneralFeat(characterLevelAfter) {
		return true
	}
	return isFighter && f.GainsFighterBonusFeat(classLevelAfter)
}

func contains(levels []int, level int) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
