package levelup_test

import (
	"context"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/dice"
	"github.com/cory-johannsen/srd/internal/game/feats"
	"github.com/cory-johannsen/srd/internal/game/levelup"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/spells"
)

var casterTable = []ruleset.ProgressionRow{
	{ClassLevel: 1, Spells: []int{3, 1}},
	{ClassLevel: 3, Spells: []int{4, 2, 1}},
}

func content() *ruleset.Content {
	return &ruleset.Content{
		Classes: []*ruleset.Class{
			{
				ID: "class.fighter", Name: "Fighter", HitDie: 10, SkillPointsPerLevel: 2, BAB: ruleset.BABGood,
				ClassSkills:      []ruleset.ClassSkill{{Key: "climb", Name: "Climb"}},
				AutoGrantedFeats: []ruleset.AutoGrant{{Level: 1, FeatID: "feat.simple_weapon_proficiency"}},
				Features:         []ruleset.ClassFeature{{Level: 1, FeatKey: "bonus_feat", FeatName: "Bonus Feat"}},
			},
			{
				ID: "class.cleric", Name: "Cleric", HitDie: 8, SkillPointsPerLevel: 2, BAB: ruleset.BABAverage,
				ClassSkills: []ruleset.ClassSkill{{Key: "concentration", Name: "Concentration"}},
				Spellcasting: &ruleset.Spellcasting{
					Enabled: true, CasterType: ruleset.CasterDivine, Preparation: ruleset.PreparationPrepared,
					ListAccess: ruleset.AccessFull, SpellListKey: "cleric", SpellsPerDay: casterTable, SupportsDomains: true,
				},
			},
			{
				ID: "class.wizard", Name: "Wizard", HitDie: 4, SkillPointsPerLevel: 2, BAB: ruleset.BABPoor,
				ClassSkills: []ruleset.ClassSkill{{Key: "concentration", Name: "Concentration"}},
				Spellcasting: &ruleset.Spellcasting{
					Enabled: true, CasterType: ruleset.CasterArcane, Preparation: ruleset.PreparationPrepared,
					ListAccess: ruleset.AccessLearned, SpellListKey: "sor_wiz", SpellsPerDay: casterTable,
				},
			},
		},
		Skills: []*ruleset.Skill{
			{ID: "skill.climb", Key: "climb", Name: "Climb", Ability: "str"},
			{ID: "skill.spot", Key: "spot", Name: "Spot", Ability: "wis"},
			{ID: "skill.concentration", Key: "concentration", Name: "Concentration", Ability: "con"},
		},
		Feats: []*ruleset.Feat{
			{ID: "feat.simple_weapon_proficiency", Key: "simple_weapon_proficiency", Name: "Simple Weapon Proficiency"},
			{ID: "feat.power_attack", Key: "power_attack", Name: "Power Attack", PrerequisiteAbilities: map[string]int{"str": 13}},
			{ID: "feat.dodge", Key: "dodge", Name: "Dodge", PrerequisiteAbilities: map[string]int{"dex": 13}},
			{ID: "feat.toughness", Key: "toughness", Name: "Toughness", Repeatable: true},
		},
		Spells: []*ruleset.Spell{
			{ID: "spell.detect_magic", Name: "Detect Magic", SchoolKey: "divination",
				LevelsByClass: []ruleset.ListLevel{{ClassKey: "cleric", Level: 0}, {ClassKey: "sor_wiz", Level: 0}}},
			{ID: "spell.bless", Name: "Bless", SchoolKey: "enchantment",
				LevelsByClass: []ruleset.ListLevel{{ClassKey: "cleric", Level: 1}}},
			{ID: "spell.cure_light_wounds", Name: "Cure Light Wounds", SchoolKey: "conjuration",
				LevelsByClass:  []ruleset.ListLevel{{ClassKey: "cleric", Level: 1}},
				LevelsByDomain: []ruleset.DomainLevel{{DomainKey: "healing", Level: 1}}},
			{ID: "spell.cure_moderate_wounds", Name: "Cure Moderate Wounds", SchoolKey: "conjuration",
				LevelsByClass:  []ruleset.ListLevel{{ClassKey: "cleric", Level: 2}},
				LevelsByDomain: []ruleset.DomainLevel{{DomainKey: "healing", Level: 2}}},
			{ID: "spell.bulls_strength", Name: "Bull's Strength", SchoolKey: "transmutation",
				LevelsByClass:  []ruleset.ListLevel{{ClassKey: "cleric", Level: 2}, {ClassKey: "sor_wiz", Level: 2}},
				LevelsByDomain: []ruleset.DomainLevel{{DomainKey: "strength", Level: 2}}},
			{ID: "spell.enlarge_person", Name: "Enlarge Person", SchoolKey: "transmutation",
				LevelsByClass:  []ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}},
				LevelsByDomain: []ruleset.DomainLevel{{DomainKey: "strength", Level: 1}}},
			{ID: "spell.magic_missile", Name: "Magic Missile", SchoolKey: "evocation",
				LevelsByClass: []ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}}},
		},
		Domains: []*ruleset.Domain{
			{ID: "domain.healing", Key: "healing", Name: "Healing"},
			{ID: "domain.strength", Key: "strength", Name: "Strength"},
		},
	}
}

type harness struct {
	catalog *ruleset.Catalog
	store   *character.MemoryStore
	engine  *levelup.Engine
	logs    *observer.ObservedLogs
}

func newHarness(t require.TestingT, policy levelup.Policy, faces ...int) *harness {
	if len(faces) == 0 {
		faces = []int{1}
	}
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	cat := ruleset.NewCatalog(logger, ruleset.StaticSource{Content: content()})
	require.NoError(t, cat.Err())
	h := &harness{catalog: cat, store: character.NewMemoryStore(), logs: logs}
	h.engine = levelup.NewEngine(levelup.Deps{
		Catalog: cat,
		Store:   h.store,
		Deriver: spells.NewDeriver(cat),
		Feats:   feats.NewEvaluator(cat, nil, logger),
		Roller:  dice.NewLoggedRoller(dice.NewFixedSource(faces...), logger),
		Logger:  logger,
		IDs:     character.SequentialIDs("id"),
	}, policy)
	return h
}

func (h *harness) create(t require.TestingT, r *character.Record) {
	require.NoError(t, h.store.Create(context.Background(), r))
}

func (h *harness) read(t require.TestingT, id string) *character.Record {
	r, err := h.store.Read(context.Background(), id)
	require.NoError(t, err)
	return r
}

func newCharacter() *character.Record {
	return character.New("c1", "Dara", map[string]int{"str": 14, "dex": 12, "con": 12, "int": 10, "wis": 10, "cha": 8})
}

// withLevels returns newCharacter with the given class levels, acquired in
// argument order.
func withLevels(pairs ...any) *character.Record {
	r := newCharacter()
	for i := 0; i < len(pairs); i += 2 {
		id := pairs[i].(string)
		n := pairs[i+1].(int)
		r.Classes = append(r.Classes, character.ClassInstance{ID: "ci-" + id, ClassID: id, Name: id})
		for j := 0; j < n; j++ {
			r.LevelHistory = append(r.LevelHistory, character.LevelEntry{ClassID: id, HPRolled: 5})
		}
	}
	return r
}

func spellNames(r *character.Record) []string {
	out := make([]string, 0, len(r.Spells))
	for _, s := range r.Spells {
		out = append(out, s.Name)
	}
	return out
}

// levelOnce drives a session for classID with default choices: minimum hit
// points when none are pre-filled, no skill points, no feat.
func levelOnce(t require.TestingT, h *harness, id, classID string, domains ...string) *character.Record {
	ctx := context.Background()
	s, err := h.engine.Begin(ctx, id)
	require.NoError(t, err)
	v, err := s.ChooseClass(classID, domains...)
	require.NoError(t, err)
	require.True(t, v.Valid, v.Reason)
	advance(t, s)
	if _, ok := s.HP(); !ok {
		require.NoError(t, s.EnterHP(1))
	}
	advance(t, s)
	advance(t, s)
	if s.Step() == levelup.StepFeat {
		require.NoError(t, s.DeclineFeat())
		advance(t, s)
	}
	require.Equal(t, levelup.StepReview, s.Step())
	out, err := s.Commit(ctx)
	require.NoError(t, err)
	return out
}

func advance(t require.TestingT, s *levelup.Session) {
	v, err := s.Next()
	require.NoError(t, err)
	require.True(t, v.Valid, v.Reason)
}
