package progression

import (
	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// ClassLookup resolves class definitions by ID.
type ClassLookup interface {
	Class(id string) (*ruleset.Class, bool)
}

// TotalBaseAttack returns the character's base attack bonus: the sum of each
// class's bonus at its class level. Classes missing from the catalog add nothing.
func TotalBaseAttack(r *character.Record, classes ClassLookup) int {
	total := 0
	for id, lvl := range r.ClassLevels() {
		if c, ok := classes.Class(id); ok {
			total += BaseAttack(c.BAB, lvl)
		}
	}
	return total
}

// TotalSave returns the character's base save for save ("fort", "ref", "will").
func TotalSave(r *character.Record, classes ClassLookup, save string) int {
	total := 0
	for id, lvl := range r.ClassLevels() {
		if c, ok := classes.Class(id); ok {
			total += Save(c.Saves[save], lvl)
		}
	}
	return total
}

// CasterClass pairs a spellcasting class with the character's level in it.
type CasterClass struct {
	Class    *ruleset.Class
	Instance character.ClassInstance
	Level    int
	PerDay   Slots
}

// CasterClasses returns the character's enabled spellcasting classes in order of
// acquisition. An entry in override replaces the level of the class it names;
// an override of 0 drops the class.
func CasterClasses(r *character.Record, classes ClassLookup, override map[string]int) []CasterClass {
	var out []CasterClass
	for _, inst := range r.Classes {
		c, ok := classes.Class(inst.ClassID)
		if !ok || !c.IsCaster() {
			continue
		}
		lvl := r.ClassLevel(inst.ClassID)
		if o, ok := override[inst.ClassID]; ok {
			lvl = o
		}
		if lvl <= 0 {
			continue
		}
		out = append(out, CasterClass{Class: c, Instance: inst, Level: lvl, PerDay: SpellsPerDay(c, lvl)})
	}
	return out
}
