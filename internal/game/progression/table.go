// Package progression computes per-level class values: spell slot and
// spells-known tables, base attack bonus, saves, and feat levels.
package progression

import (
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// Lookup returns column col from the row with the largest ClassLevel not above
// classLevel. Rows need not be sorted or contiguous.
//
// Postcondition: Returns 0 when classLevel <= 0, the table is empty, or every row
// lies above classLevel. Levels past the last row use the last row.
func Lookup(table []ruleset.ProgressionRow, classLevel, col int) int {
	if classLevel <= 0 {
		return 0
	}
	best := -1
	value := 0
	for _, row := range table {
		if row.ClassLevel > classLevel || row.ClassLevel <= best {
			continue
		}
		best = row.ClassLevel
		value = row.Column(col)
	}
	return value
}

// Slots holds one value per spell level 0 through 9.
type Slots [ruleset.MaxSpellLevel + 1]int

// Any reports whether at least one spell level has a positive value.
func (s Slots) Any() bool {
	for _, n := range s {
		if n > 0 {
			return true
		}
	}
	return false
}

// Has reports whether spell level has a positive value.
func (s Slots) Has(level int) bool {
	if level < 0 || level > ruleset.MaxSpellLevel {
		return false
	}
	return s[level] > 0
}

// SpellsPerDay returns the slots per spell level for a class at classLevel.
//
// Postcondition: Returns all zeros for non-casters.
func SpellsPerDay(class *ruleset.Class, classLevel int) Slots {
	var out Slots
	if class == nil || !class.IsCaster() {
		return out
	}
	for lvl := range out {
		out[lvl] = Lookup(class.Spellcasting.SpellsPerDay, classLevel, lvl)
	}
	return out
}

// SpellsKnown returns the spells-known ceiling per spell level for a
// spontaneous caster at classLevel.
//
// Postcondition: Returns all zeros unless the class is a spontaneous caster.
func SpellsKnown(class *ruleset.Class, classLevel int) Slots {
	var out Slots
	if class == nil || !class.IsCaster() || class.Spellcasting.Preparation != ruleset.PreparationSpontaneous {
		return out
	}
	for lvl := range out {
		out[lvl] = Lookup(class.Spellcasting.SpellsKnown, classLevel, lvl)
	}
	return out
}
