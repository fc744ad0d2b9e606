package spells_test

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/spells"
)

var casterTable = []ruleset.ProgressionRow{
	{ClassLevel: 1, Spells: []int{3, 1}},
	{ClassLevel: 3, Spells: []int{4, 2, 1}},
}

func cleric() *ruleset.Class {
	return &ruleset.Class{ID: "cleric", Name: "Cleric", HitDie: 8, Spellcasting: &ruleset.Spellcasting{
		Enabled: true, CasterType: ruleset.CasterDivine, Preparation: ruleset.PreparationPrepared,
		ListAccess: ruleset.AccessFull, SpellListKey: "cleric", SpellsPerDay: casterTable, SupportsDomains: true,
	}}
}

func wizard() *ruleset.Class {
	return &ruleset.Class{ID: "wizard", Name: "Wizard", HitDie: 4, Spellcasting: &ruleset.Spellcasting{
		Enabled: true, CasterType: ruleset.CasterArcane, Preparation: ruleset.PreparationPrepared,
		ListAccess: ruleset.AccessLearned, SpellListKey: "sor_wiz", SpellsPerDay: casterTable,
	}}
}

func sorcerer() *ruleset.Class {
	return &ruleset.Class{ID: "sorcerer", Name: "Sorcerer", HitDie: 4, Spellcasting: &ruleset.Spellcasting{
		Enabled: true, CasterType: ruleset.CasterArcane, Preparation: ruleset.PreparationSpontaneous,
		ListAccess: ruleset.AccessLearned, SpellListKey: "sor_wiz",
		SpellsPerDay: []ruleset.ProgressionRow{{ClassLevel: 1, Spells: []int{5, 3}}},
		SpellsKnown:  []ruleset.ProgressionRow{{ClassLevel: 1, Spells: []int{4, 2}}},
	}}
}

func spell(id, name, school string, classes []ruleset.ListLevel, domains []ruleset.DomainLevel) *ruleset.Spell {
	return &ruleset.Spell{ID: id, Name: name, SchoolKey: school, LevelsByClass: classes, LevelsByDomain: domains}
}

func catalogSpells() []*ruleset.Spell {
	return []*ruleset.Spell{
		spell("spell.cure_light_wounds", "Cure Light Wounds", "conjuration",
			[]ruleset.ListLevel{{ClassKey: "cleric", Level: 1}}, []ruleset.DomainLevel{{DomainKey: "healing", Level: 1}}),
		spell("spell.cure_moderate_wounds", "Cure Moderate Wounds", "conjuration",
			[]ruleset.ListLevel{{ClassKey: "cleric", Level: 2}}, []ruleset.DomainLevel{{DomainKey: "Healing", Level: 2}}),
		spell("spell.bless", "Bless", "enchantment", []ruleset.ListLevel{{ClassKey: "cleric", Level: 1}}, nil),
		spell("spell.bulls_strength", "Bull's Strength", "transmutation",
			[]ruleset.ListLevel{{ClassKey: "cleric", Level: 2}, {ClassKey: "sor_wiz", Level: 2}},
			[]ruleset.DomainLevel{{DomainKey: "strength", Level: 2}}),
		spell("spell.enlarge_person", "Enlarge Person", "transmutation",
			[]ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}}, []ruleset.DomainLevel{{DomainKey: "strength", Level: 1}}),
		spell("spell.detect_magic", "Detect Magic", "divination",
			[]ruleset.ListLevel{{ClassKey: "cleric", Level: 0}, {ClassKey: "sor_wiz", Level: 0}}, nil),
		spell("spell.magic_missile", "Magic Missile", "evocation", []ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}}, nil),
		spell("spell.shield", "Shield", "abjuration", []ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}}, nil),
		spell("spell.mage_armor", "mage armor", "", []ruleset.ListLevel{{ClassKey: "sor_wiz", Level: 1}}, nil),
	}
}

func newCatalog() *ruleset.Catalog {
	return ruleset.NewCatalog(zap.NewNop(), ruleset.StaticSource{Content: &ruleset.Content{
		Classes: []*ruleset.Class{cleric(), wizard(), sorcerer()},
		Spells:  catalogSpells(),
		Domains: []*ruleset.Domain{
			{ID: "domain.healing", Key: "healing", Name: "Healing"},
			{ID: "domain.strength", Key: "strength", Name: "Strength"},
		},
	}})
}

// withLevels returns a record with the given class levels, acquired in argument order.
func withLevels(pairs ...any) *character.Record {
	r := character.New("c1", "Aster", nil)
	for i := 0; i < len(pairs); i += 2 {
		id := pairs[i].(string)
		n := pairs[i+1].(int)
		r.Classes = append(r.Classes, character.ClassInstance{ID: "ci-" + id, ClassID: id, Name: id})
		for j := 0; j < n; j++ {
			r.LevelHistory = append(r.LevelHistory, character.LevelEntry{ClassID: id, HPRolled: 4})
		}
	}
	return r
}

// own adds instances of the named catalog spells to r.
func own(r *character.Record, cat *ruleset.Catalog, classID string, ids ...string) {
	for _, id := range ids {
		s, ok := cat.Spell(id)
		if !ok {
			panic("unknown spell " + id)
		}
		r.Spells = append(r.Spells, spells.NewInstance("inst-"+id, s, classID))
	}
}
