package spells

import (
	"sort"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// classRules classifies spell instances for one caster class at one level.
type classRules struct {
	class   *ruleset.Class
	level   int
	slots   progression.Slots
	domains map[int]map[string]bool
}

func (d *Deriver) rulesFor(r *character.Record, class *ruleset.Class, level int) classRules {
	return classRules{
		class:   class,
		level:   level,
		slots:   progression.SpellsPerDay(class, level),
		domains: d.namesByLevel(r.Domains(class.ID)),
	}
}

// domainLevels returns the levels at which the class's domains grant name, ascending.
func (c classRules) domainLevels(name string) []int {
	var out []int
	for lvl, names := range c.domains {
		if names[name] {
			out = append(out, lvl)
		}
	}
	sort.Ints(out)
	return out
}

// classify places inst under the class. A spell on the class list is a domain
// spell when a domain grants it at its class-list level; a spell only on a
// domain list sits at the lowest level a domain grants it. Either way the class
// must have slots at that level.
func (c classRules) classify(inst character.SpellInstance) (level int, domain bool, ok bool) {
	name := ruleset.NormalizeKey(inst.Name)
	listLevel, onList := ruleset.LevelOnList(inst.LevelsByClass, c.class.Spellcasting.SpellListKey)
	if onList {
		if c.domains[listLevel][name] && c.slots.Has(listLevel) {
			return listLevel, true, true
		}
		if c.slots.Has(listLevel) {
			return listLevel, false, true
		}
		return 0, false, false
	}
	if lv := c.domainLevels(name); len(lv) > 0 && c.slots.Has(lv[0]) {
		return lv[0], true, true
	}
	return 0, false, false
}

// grants reports whether the class at its level would show inst.
func (c classRules) grants(inst character.SpellInstance) bool {
	_, _, ok := c.classify(inst)
	return ok
}
