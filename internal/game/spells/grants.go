package spells

import (
	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// UnlockedLevels returns the spell levels at which class has slots at levelAfter
// but had none at levelBefore, ascending.
func UnlockedLevels(class *ruleset.Class, levelBefore, levelAfter int) []int {
	before := progression.SpellsPerDay(class, levelBefore)
	after := progression.SpellsPerDay(class, levelAfter)
	var out []int
	for lvl := range after {
		if after.Has(lvl) && !before.Has(lvl) {
			out = append(out, lvl)
		}
	}
	return out
}

// ClassListGrants returns new instances of every catalog spell on the list of a
// full-list class at one of levels. Spells whose name r already owns are skipped.
//
// Postcondition: Returns nil for classes without full list access.
func ClassListGrants(r *character.Record, class *ruleset.Class, levels []int, index SpellIndex, newID character.IDFunc) []character.SpellInstance {
	if class.ListAccess() != ruleset.AccessFull || len(levels) == 0 {
		return nil
	}
	want := make(map[int]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}
	owned := ownedNames(r)
	var out []character.SpellInstance
	for _, s := range index.AllSpells() {
		lvl, ok := s.LevelForClass(class.Spellcasting.SpellListKey)
		name := ruleset.NormalizeKey(s.Name)
		if !ok || !want[lvl] || owned[name] {
			continue
		}
		owned[name] = true
		out = append(out, NewInstance(newID(), s, class.ID))
	}
	ruleset.SortByName(out, func(s character.SpellInstance) string { return s.Name })
	return out
}

// SpeculativeForLearned returns the IDs of spell instances to strip when r takes
// up learned caster class: instances tagged for that class, and untagged
// instances on its list that no other caster class of r shows.
//
// Postcondition: Returns nil for classes without learned list access.
func (d *Deriver) SpeculativeForLearned(r *character.Record, class *ruleset.Class, classes progression.ClassLookup) []string {
	if class.ListAccess() != ruleset.AccessLearned {
		return nil
	}
	var others []classRules
	for _, cc := range progression.CasterClasses(r, classes, nil) {
		if cc.Class.ID != class.ID {
			others = append(others, d.rulesFor(r, cc.Class, cc.Level))
		}
	}
	var out []string
	for _, inst := range r.Spells {
		if inst.ClassID == class.ID {
			out = append(out, inst.ID)
			continue
		}
		if inst.ClassID != "" {
			continue
		}
		if _, onList := ruleset.LevelOnList(inst.LevelsByClass, class.Spellcasting.SpellListKey); !onList {
			continue
		}
		if !anyGrants(others, inst) {
			out = append(out, inst.ID)
		}
	}
	return out
}

// SpellsToRemoveOnLevelChange returns the IDs of spell instances to strip when
// classID moves to newClassLevel; nil newClassLevel removes the class. A spell
// is removed when the class showed it at its current level, no longer shows it
// at the new level, and no other caster class of r shows it.
//
// Postcondition: Returns nil when the class is unknown or not a caster.
func (d *Deriver) SpellsToRemoveOnLevelChange(r *character.Record, classID string, newClassLevel *int, classes progression.ClassLookup) []string {
	class, ok := classes.Class(classID)
	if !ok || !class.IsCaster() {
		return nil
	}
	before := d.rulesFor(r, class, r.ClassLevel(classID))
	after := classRules{}
	if newClassLevel != nil && *newClassLevel > 0 {
		after = d.rulesFor(r, class, *newClassLevel)
	}
	var others []classRules
	for _, cc := range progression.CasterClasses(r, classes, nil) {
		if cc.Class.ID != classID {
			others = append(others, d.rulesFor(r, cc.Class, cc.Level))
		}
	}
	var out []string
	for _, inst := range r.Spells {
		if !before.grants(inst) {
			continue
		}
		if after.class != nil && after.grants(inst) {
			continue
		}
		if anyGrants(others, inst) {
			continue
		}
		out = append(out, inst.ID)
	}
	return out
}

func anyGrants(rules []classRules, inst character.SpellInstance) bool {
	for _, c := range rules {
		if c.grants(inst) {
			return true
		}
	}
	return false
}
