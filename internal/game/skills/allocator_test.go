package skills_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/skills"
)

type skillMap map[string]*ruleset.Skill

func (m skillMap) Skill(key string) (*ruleset.Skill, bool) {
	s, ok := m[ruleset.NormalizeKey(key)]
	return s, ok
}

func (m skillMap) SkillsByKey() map[string]*ruleset.Skill {
	return m
}

func catalog() skillMap {
	return skillMap{
		"climb":             {Key: "climb", Name: "Climb", Ability: "str"},
		"spellcraft":        {Key: "spellcraft", Name: "Spellcraft", Ability: "int"},
		"speak_with_beasts": {Key: "speak_with_beasts", Name: "Speak with Beasts", Exclusive: true},
		"tumble":            {Key: "tumble", Name: "Tumble", Ability: "dex"},
	}
}

func fighterClass(points int) *ruleset.Class {
	return &ruleset.Class{
		ID:                  "fighter",
		Name:                "Fighter",
		HitDie:              10,
		SkillPointsPerLevel: points,
		ClassSkills:         []ruleset.ClassSkill{{Key: "Climb", Name: "Climb"}},
	}
}

// levelFive returns a level 5 fighter with 3 ranks of Climb and int 12.
func levelFive() *character.Record {
	r := character.New("c1", "Mira", map[string]int{character.Int: 12})
	r.Classes = []character.ClassInstance{{ID: "ci1", ClassID: "fighter", Name: "Fighter"}}
	for i := 0; i < 4; i++ {
		r.LevelHistory = append(r.LevelHistory, character.LevelEntry{ClassID: "fighter", HPRolled: 6})
	}
	r.Skills = []character.SkillInstance{{ID: "s-climb", Key: "climb", Name: "Climb", Ranks: 3}}
	return r
}

func line(t *testing.T, res skills.SpendResult, id string) skills.LineResult {
	t.Helper()
	for _, l := range res.Lines {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("no line %q", id)
	return skills.LineResult{}
}

func TestBudget_Scenario1(t *testing.T) {
	class := fighterClass(2)
	assert.Equal(t, 3, skills.Budget(class, 1, false))
	assert.Equal(t, 12, skills.Budget(class, 1, true))
}

func TestBudget_FloorsAtOneBeforeMultiplier(t *testing.T) {
	class := fighterClass(2)
	assert.Equal(t, 1, skills.Budget(class, -4, false))
	assert.Equal(t, 4, skills.Budget(class, -4, true))
}

// Property: the first-level budget is four times the later budget.
func TestBudget_FirstLevelIsFourTimes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(0, 12).Draw(rt, "base")
		mod := rapid.IntRange(-5, 10).Draw(rt, "intMod")
		class := fighterClass(base)
		later := skills.Budget(class, mod, false)
		if later < 1 {
			rt.Fatalf("budget %d below 1", later)
		}
		if first := skills.Budget(class, mod, true); first != 4*later {
			rt.Fatalf("first %d != 4 * %d", first, later)
		}
	})
}

func TestClassify(t *testing.T) {
	classKeys := ruleset.KeySet([]string{" Climb "})
	granted := ruleset.KeySet([]string{"SPEAK_WITH_BEASTS"})
	excluded := ruleset.KeySet([]string{"tumble"})
	cat := catalog()

	c := skills.Classify(cat["climb"], classKeys, granted, excluded)
	assert.Equal(t, skills.Classification{IsClassSkill: true}, c)

	c = skills.Classify(cat["speak_with_beasts"], classKeys, granted, excluded)
	assert.Equal(t, skills.Classification{IsClassSkill: true}, c, "granted exclusive skill is usable")

	c = skills.Classify(cat["speak_with_beasts"], classKeys, nil, excluded)
	assert.True(t, c.IsForbidden, "exclusive skill without a grant is forbidden")

	c = skills.Classify(cat["tumble"], classKeys, granted, excluded)
	assert.True(t, c.IsForbidden)
	assert.False(t, c.IsClassSkill)

	c = skills.Classify(cat["spellcraft"], classKeys, granted, excluded)
	assert.Equal(t, skills.Classification{}, c)
}

func TestCostAndCap(t *testing.T) {
	assert.Equal(t, 1, skills.CostPerRank(true))
	assert.Equal(t, 2, skills.CostPerRank(false))
	assert.Equal(t, 8, skills.MaxRanksAfterLevel(true, 5))
	assert.Equal(t, 4, skills.MaxRanksAfterLevel(false, 5))
}

func TestApply_Scenario2ClassSkillClampedByCap(t *testing.T) {
	a := skills.NewAllocator(levelFive(), fighterClass(2), catalog())
	require.Equal(t, 5, a.LevelAfter())

	res := a.Apply(map[string]int{"s-climb": 10})
	l := line(t, res, "s-climb")
	assert.Equal(t, 8, l.Cap)
	assert.Equal(t, 5.0, l.AddRanks)
	assert.Equal(t, 8.0, l.ResultingRanks)
	assert.Equal(t, 5, l.PointsSpent)
	assert.Equal(t, 5, res.PointsSpent)
	assert.Equal(t, 3, res.Budget)
	assert.Equal(t, -2, res.Remaining)
	assert.False(t, res.Valid)
}

func TestApply_HalfRankFillsToCap(t *testing.T) {
	r := levelFive()
	r.Skills[0].Ranks = 7.5
	a := skills.NewAllocator(r, fighterClass(2), catalog())

	res := a.Apply(map[string]int{"s-climb": 10})
	l := line(t, res, "s-climb")
	assert.Equal(t, 8, l.Cap)
	assert.Equal(t, 0.5, l.AddRanks)
	assert.Equal(t, 8.0, l.ResultingRanks)
	assert.Equal(t, 1, l.PointsSpent)
	assert.Equal(t, 2, res.Remaining)
	assert.True(t, res.Valid)

	r.Skills = append(r.Skills, character.SkillInstance{ID: "s-spell", Key: "spellcraft", Name: "Spellcraft", Ranks: 3.5})
	a = skills.NewAllocator(r, fighterClass(2), catalog())
	res = a.Apply(map[string]int{"s-spell": 6})
	l = line(t, res, "s-spell")
	assert.Equal(t, 4, l.Cap)
	assert.Equal(t, 0.5, l.AddRanks)
	assert.Equal(t, 4.0, l.ResultingRanks)
	assert.Equal(t, 1, l.PointsSpent)
}

func TestApply_Scenario3CrossClass(t *testing.T) {
	a := skills.NewAllocator(levelFive(), fighterClass(9), catalog())
	res := a.Apply(map[string]int{skills.SyntheticKey("spellcraft"): 10})
	l := line(t, res, skills.SyntheticKey("spellcraft"))
	assert.True(t, l.Synthetic)
	assert.Equal(t, 4, l.Cap)
	assert.Equal(t, 4.0, l.AddRanks)
	assert.Equal(t, 8, l.PointsSpent)
	assert.Equal(t, 10, res.Budget)
	assert.Equal(t, 2, res.Remaining)
	assert.True(t, res.Valid)
}

func TestApply_ForbiddenAndUnknown(t *testing.T) {
	r := levelFive()
	r.ExcludedSkillKeys = []string{"tumble"}
	a := skills.NewAllocator(r, fighterClass(2), catalog())
	res := a.Apply(map[string]int{
		skills.SyntheticKey("tumble"):            4,
		skills.SyntheticKey("speak_with_beasts"): 4,
		"missing":                                3,
	})
	assert.Equal(t, 0, res.PointsSpent)
	assert.Equal(t, []string{"missing"}, res.Ignored)
	assert.Empty(t, res.Changed())
}

func TestApply_SyntheticKeyMapsToOwnedSkill(t *testing.T) {
	a := skills.NewAllocator(levelFive(), fighterClass(2), catalog())
	res := a.Apply(map[string]int{skills.SyntheticKey("CLIMB"): 2})
	l := line(t, res, "s-climb")
	assert.Equal(t, 2.0, l.AddRanks)
}

func TestPlan(t *testing.T) {
	a := skills.NewAllocator(levelFive(), fighterClass(9), catalog())
	res := a.Apply(map[string]int{"s-climb": 2, skills.SyntheticKey("spellcraft"): 4})
	require.True(t, res.Valid)

	plan, err := res.Plan(func() string { return "s-new" })
	require.NoError(t, err)
	assert.Equal(t, []character.SkillInstance{{ID: "s-new", Key: "spellcraft", Name: "Spellcraft", Ranks: 2}}, plan.NewSkills)
	assert.Equal(t, []character.SkillRankUpdate{{SkillID: "s-climb", Ranks: 5}}, plan.Updates)
	assert.Equal(t, map[string]float64{"s-new": 2, "s-climb": 2}, plan.Added)

	out, err := plan.Mutations().ApplyTo(levelFive())
	require.NoError(t, err)
	s, ok := out.SkillByKey("spellcraft")
	require.True(t, ok)
	assert.Equal(t, 2.0, s.Ranks)
}

func TestPlan_OverBudget(t *testing.T) {
	a := skills.NewAllocator(levelFive(), fighterClass(2), catalog())
	res := a.Apply(map[string]int{"s-climb": 5})
	_, err := res.Plan(func() string { return "x" })
	assert.ErrorIs(t, err, skills.ErrOverBudget)
}

// Property: resulting ranks never exceed the cap and spend is never negative.
func TestApply_CapAndNonNegativeSpend(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := character.New("c1", "Prop", map[string]int{character.Int: rapid.IntRange(3, 20).Draw(rt, "int")})
		r.Classes = []character.ClassInstance{{ID: "ci", ClassID: "fighter"}}
		levels := rapid.IntRange(0, 19).Draw(rt, "levels")
		for i := 0; i < levels; i++ {
			r.LevelHistory = append(r.LevelHistory, character.LevelEntry{ClassID: "fighter"})
		}
		r.Skills = []character.SkillInstance{{ID: "s-climb", Key: "climb", Name: "Climb", Ranks: float64(rapid.IntRange(0, levels+3).Draw(rt, "climb"))}}

		a := skills.NewAllocator(r, fighterClass(rapid.IntRange(0, 8).Draw(rt, "base")), catalog())
		pending := map[string]int{
			"s-climb":                         rapid.IntRange(-20, 40).Draw(rt, "p-climb"),
			skills.SyntheticKey("spellcraft"): rapid.IntRange(-20, 40).Draw(rt, "p-spellcraft"),
			skills.SyntheticKey("tumble"):     rapid.IntRange(-20, 40).Draw(rt, "p-tumble"),
		}
		res := a.Apply(pending)
		if res.Remaining != res.Budget-res.PointsSpent || res.Valid != (res.Remaining >= 0) {
			rt.Fatalf("inconsistent totals %+v", res)
		}
		for _, l := range res.Lines {
			if l.PointsSpent < 0 || l.AddRanks < 0 {
				rt.Fatalf("negative spend on %s: %+v", l.ID, l)
			}
			if l.AddRanks > 0 && l.ResultingRanks > float64(l.Cap) {
				rt.Fatalf("%s exceeds cap: %v > %d", l.ID, l.ResultingRanks, l.Cap)
			}
			if pending[l.ID] <= 0 && l.PointsSpent != 0 {
				rt.Fatalf("%s spent %d with non-positive input", l.ID, l.PointsSpent)
			}
		}
	})
}

func TestCapAtLevel(t *testing.T) {
	r := levelFive()
	r.ClassSkillKeys = []string{"climb"}
	r.Skills = append(r.Skills, character.SkillInstance{ID: "s-spell", Key: "spellcraft", Name: "Spellcraft", Ranks: 4})
	r.Skills[0].Ranks = 8

	updates := skills.CapAtLevel(r, catalog(), 4)
	assert.Equal(t, []character.SkillRankUpdate{
		{SkillID: "s-climb", Ranks: 7},
		{SkillID: "s-spell", Ranks: 3},
	}, updates)
	assert.Empty(t, skills.CapAtLevel(r, catalog(), 5))
}
