package levelup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/levelup"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/skills"
)

func TestSession_FirstLevelFighter(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, newCharacter())

	s, err := h.engine.Begin(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, levelup.StepChooseClass, s.Step())
	require.Len(t, s.ClassOptions(), 3)

	v, err := s.ChooseClass("class.fighter")
	require.NoError(t, err)
	require.True(t, v.Valid)
	assert.True(t, s.IsNewClass())
	advance(t, s)

	hp, ok := s.HP()
	require.True(t, ok, "first level pre-fills hit points")
	assert.Equal(t, 10, hp)
	advance(t, s)

	assert.Equal(t, 8, s.Budget())
	res, err := s.SetSkillPoints(map[string]int{
		skills.SyntheticKey("climb"): 4,
		skills.SyntheticKey("spot"):  4,
	})
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, 0, res.Remaining)
	advance(t, s)

	require.Equal(t, levelup.StepFeat, s.Step())
	v, err = s.SelectFeat(ctx, "feat.power_attack")
	require.NoError(t, err)
	require.True(t, v.Valid, v.Reason)
	advance(t, s)
	require.Equal(t, levelup.StepReview, s.Step())

	out, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, levelup.StepCommitted, s.Step())

	assert.Equal(t, 1, out.Level())
	assert.Equal(t, 11, out.MaxHP())
	assert.Contains(t, out.ClassSkillKeys, "climb")
	climb, ok := out.SkillByKey("climb")
	require.True(t, ok)
	assert.Equal(t, 4.0, climb.Ranks)
	spot, ok := out.SkillByKey("spot")
	require.True(t, ok)
	assert.Equal(t, 2.0, spot.Ranks)

	assert.True(t, out.OwnsFeat("feat.power_attack"))
	assert.True(t, out.OwnsFeat("feat.simple_weapon_proficiency"))
	entry := out.LevelHistory[0]
	assert.Equal(t, "class.fighter", entry.ClassID)
	assert.Len(t, entry.FeatIDs, 2)
	assert.Equal(t, []string{"bonus_feat"}, entry.FeatureKeys)
	assert.Equal(t, 4.0, entry.SkillRanks[climb.ID])
	assert.Equal(t, 2.0, entry.SkillRanks[spot.ID])
	for _, f := range out.Feats {
		if f.SourceFeatID == "feat.simple_weapon_proficiency" {
			require.NotNil(t, f.AutoGrantedBy)
			assert.Equal(t, character.AutoGrantSource{ClassID: "class.fighter", Level: 1}, *f.AutoGrantedBy)
		}
	}
	assert.Equal(t, 1, h.logs.FilterMessage("level up committed").Len())
}

func TestSession_FighterBonusFeatAtSecondLevel(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, withLevels("class.fighter", 1))
	s, err := h.engine.Begin(context.Background(), "c1")
	require.NoError(t, err)
	_, err = s.ChooseClass("class.fighter")
	require.NoError(t, err)
	assert.True(t, s.GainsFeat())
}

func TestSession_NoFeatSkipsToReview(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, withLevels("class.cleric", 1))
	s, err := h.engine.Begin(context.Background(), "c1")
	require.NoError(t, err)
	_, err = s.ChooseClass("class.cleric")
	require.NoError(t, err)
	advance(t, s)
	require.NoError(t, s.EnterHP(5))
	advance(t, s)
	advance(t, s)
	assert.Equal(t, levelup.StepReview, s.Step())
}

func TestSession_BlockingValidation(t *testing.T) {
	ctx := context.Background()
	policy := levelup.DefaultPolicy()
	policy.FullHPAtFirstLevel = false
	h := newHarness(t, policy)
	h.create(t, newCharacter())
	s, err := h.engine.Begin(ctx, "c1")
	require.NoError(t, err)

	v, err := s.Next()
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, levelup.StepChooseClass, s.Step())

	v, err = s.ChooseClass("class.bard")
	require.NoError(t, err)
	assert.False(t, v.Valid)

	v, err = s.ChooseClass("class.fighter", "healing")
	require.NoError(t, err)
	assert.False(t, v.Valid, "fighters cannot take domains")

	_, err = s.ChooseClass("class.fighter")
	require.NoError(t, err)
	advance(t, s)

	v, err = s.Next()
	require.NoError(t, err)
	assert.False(t, v.Valid, "hit points are required")
	assert.Equal(t, levelup.StepHitPoints, s.Step())
	require.NoError(t, s.EnterHP(6))
	advance(t, s)

	res, err := s.SetSkillPoints(map[string]int{
		skills.SyntheticKey("climb"):         4,
		skills.SyntheticKey("spot"):          4,
		skills.SyntheticKey("concentration"): 4,
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	v, err = s.Next()
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, levelup.StepSkills, s.Step())

	_, err = s.SetSkillPoints(map[string]int{skills.SyntheticKey("climb"): 4})
	require.NoError(t, err)
	advance(t, s)

	v, err = s.Next()
	require.NoError(t, err)
	assert.False(t, v.Valid, "feat decision is required")

	v, err = s.SelectFeat(ctx, "feat.dodge")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Contains(t, v.Reason, "requires dex 13 (current 12)")
	assert.Nil(t, s.Feat())
}

func TestSession_HitPointErrors(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy(), 7)
	h.create(t, withLevels("class.cleric", 1))
	s, err := h.engine.Begin(context.Background(), "c1")
	require.NoError(t, err)

	assert.ErrorIs(t, s.EnterHP(3), levelup.ErrInvalidTransition)
	_, err = s.ChooseClass("class.cleric")
	require.NoError(t, err)
	advance(t, s)

	assert.ErrorIs(t, s.EnterHP(-1), levelup.ErrNegativeHP)
	_, ok := s.HP()
	assert.False(t, ok)

	hp, err := s.RollHP()
	require.NoError(t, err)
	assert.Equal(t, 7, hp)
}

func TestSession_CommitRequiresReview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, newCharacter())
	s, err := h.engine.Begin(ctx, "c1")
	require.NoError(t, err)

	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, levelup.ErrNoPendingClass)

	_, err = s.ChooseClass("class.fighter")
	require.NoError(t, err)
	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, levelup.ErrInvalidTransition)
	assert.Equal(t, 0, h.read(t, "c1").Level())
}

func TestSession_BackClearsFeatOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, newCharacter())
	s, err := h.engine.Begin(ctx, "c1")
	require.NoError(t, err)
	_, err = s.ChooseClass("class.fighter")
	require.NoError(t, err)
	advance(t, s)
	advance(t, s)
	_, err = s.SetSkillPoints(map[string]int{skills.SyntheticKey("climb"): 2})
	require.NoError(t, err)
	advance(t, s)
	_, err = s.SelectFeat(ctx, "feat.power_attack")
	require.NoError(t, err)

	require.NoError(t, s.Back())
	assert.Equal(t, levelup.StepSkills, s.Step())
	assert.Nil(t, s.Feat())
	assert.Equal(t, 2, s.Spend().PointsSpent, "skill spend survives going back")

	require.NoError(t, s.Back())
	hp, ok := s.HP()
	assert.True(t, ok)
	assert.Equal(t, 10, hp)
	require.NoError(t, s.Back())
	assert.Equal(t, levelup.StepChooseClass, s.Step())
	assert.ErrorIs(t, s.Back(), levelup.ErrInvalidTransition)

	_, err = s.ChooseClass("class.cleric")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Spend().PointsSpent, "changing class resets the spend")
}

func TestSession_CancelWritesNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, newCharacter())
	s, err := h.engine.Begin(ctx, "c1")
	require.NoError(t, err)
	_, err = s.ChooseClass("class.fighter")
	require.NoError(t, err)
	advance(t, s)

	require.NoError(t, s.Cancel())
	assert.Equal(t, levelup.StepCancelled, s.Step())
	assert.ErrorIs(t, s.Cancel(), levelup.ErrInvalidTransition)
	_, err = s.Next()
	assert.ErrorIs(t, err, levelup.ErrInvalidTransition)
	assert.Equal(t, 0, h.read(t, "c1").Level())
}

func TestSession_NewClericGetsListAndDomainSpells(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, newCharacter())
	out := levelOnce(t, h, "c1", "class.cleric", "strength")

	assert.Equal(t, []character.DomainAssignment{{DomainKey: "strength", DomainName: "Strength"}}, out.Domains("class.cleric"))
	assert.ElementsMatch(t, []string{"Bless", "Cure Light Wounds", "Detect Magic", "Enlarge Person"}, spellNames(out))
	for _, sp := range out.Spells {
		assert.Equal(t, "class.cleric", sp.ClassID)
	}
}

func TestSession_ClericUnlocksSpellLevel(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy())
	r := withLevels("class.cleric", 2)
	r.DomainsByClass["class.cleric"] = []character.DomainAssignment{{DomainKey: "healing", DomainName: "Healing"}}
	h.create(t, r)
	out := levelOnce(t, h, "c1", "class.cleric")

	assert.Equal(t, 3, out.ClassLevel("class.cleric"))
	assert.ElementsMatch(t, []string{"Bull's Strength", "Cure Light Wounds", "Cure Moderate Wounds"}, spellNames(out))
}

func TestSession_LearnedCasterDropsSpeculativeSpells(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy())
	r := withLevels("class.fighter", 1)
	r.Spells = append(r.Spells, character.SpellInstance{
		ID: "loose", SourceSpellID: "spell.magic_missile", Name: "Magic Missile",
		LevelsByClass: []ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}},
	})
	h.create(t, r)

	out := levelOnce(t, h, "c1", "class.wizard")
	assert.True(t, out.HasClass("class.wizard"))
	assert.Empty(t, out.Spells)
}

func TestSession_DomainsOnlyForNewClass(t *testing.T) {
	h := newHarness(t, levelup.DefaultPolicy())
	h.create(t, withLevels("class.cleric", 1))
	s, err := h.engine.Begin(context.Background(), "c1")
	require.NoError(t, err)
	v, err := s.ChooseClass("class.cleric", "healing")
	require.NoError(t, err)
	assert.False(t, v.Valid)
}
