// Package spells derives domain spells, partitions a caster's spells by list and
// level, and decides which spells a class grants or loses as its level changes.
package spells

import (
	"sort"
	"sync"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// SpellIndex supplies the full spell catalog.
type SpellIndex interface {
	AllSpells() []*ruleset.Spell
}

// DomainSpell is one spell a domain grants.
type DomainSpell struct {
	Level     int
	SpellName string
	Spell     *ruleset.Spell
}

// Deriver computes the spells each domain grants by scanning every spell's
// domain levels. Results are cached per domain until Refresh.
//
// Deriver is safe for concurrent use.
type Deriver struct {
	index SpellIndex

	mu    sync.Mutex
	cache map[string][]DomainSpell
}

// NewDeriver creates a Deriver over index.
//
// Precondition: index must be non-nil.
func NewDeriver(index SpellIndex) *Deriver {
	return &Deriver{index: index, cache: make(map[string][]DomainSpell)}
}

// Refresh drops every cached domain result.
func (d *Deriver) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[string][]DomainSpell)
}

// SpellsForDomain returns the spells granted by domainKey, compared
// case-insensitively on trimmed keys.
//
// Postcondition: levels are clamped to [1, 9]; entries are unique by level and
// case-folded name, keeping the first seen; the result is sorted by level then
// name. The returned slice is a copy.
func (d *Deriver) SpellsForDomain(domainKey string) []DomainSpell {
	key := ruleset.NormalizeKey(domainKey)
	if key == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cached, ok := d.cache[key]; ok {
		return append([]DomainSpell(nil), cached...)
	}

	type seenKey struct {
		level int
		name  string
	}
	seen := make(map[seenKey]bool)
	var out []DomainSpell
	for _, s := range d.index.AllSpells() {
		for _, dl := range s.LevelsByDomain {
			if ruleset.NormalizeKey(dl.DomainKey) != key {
				continue
			}
			lvl := clampLevel(dl.Level)
			k := seenKey{lvl, ruleset.NormalizeKey(s.Name)}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, DomainSpell{Level: lvl, SpellName: s.Name, Spell: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return ruleset.CompareNames(out[i].SpellName, out[j].SpellName) < 0
	})
	d.cache[key] = out
	return append([]DomainSpell(nil), out...)
}

// namesByLevel unions the spells of every domain into level -> folded names.
func (d *Deriver) namesByLevel(domains []character.DomainAssignment) map[int]map[string]bool {
	out := make(map[int]map[string]bool)
	for _, dom := range domains {
		for _, ds := range d.SpellsForDomain(dom.DomainKey) {
			if out[ds.Level] == nil {
				out[ds.Level] = make(map[string]bool)
			}
			out[ds.Level][ruleset.NormalizeKey(ds.SpellName)] = true
		}
	}
	return out
}

func clampLevel(l int) int {
	if l < 1 {
		return 1
	}
	if l > ruleset.MaxSpellLevel {
		return ruleset.MaxSpellLevel
	}
	return l
}

// NewInstance copies catalog spell s into a spell instance tagged with classID.
func NewInstance(id string, s *ruleset.Spell, classID string) character.SpellInstance {
	return character.SpellInstance{
		ID:             id,
		SourceSpellID:  s.ID,
		Name:           s.Name,
		SchoolKey:      s.SchoolKey,
		SchoolName:     s.SchoolName,
		LevelsByClass:  append([]ruleset.ListLevel(nil), s.LevelsByClass...),
		LevelsByDomain: append([]ruleset.DomainLevel(nil), s.LevelsByDomain...),
		ClassID:        classID,
	}
}

// AddDomainSpells returns new spell instances for every spell domainKey grants
// at a level where class already has at least one slot at its current level in
// r. Spells whose name the character already owns are skipped.
//
// Postcondition: Returns nil when r has no levels in class. Applying the result
// and calling again returns nil.
func (d *Deriver) AddDomainSpells(r *character.Record, class *ruleset.Class, domainKey string, newID character.IDFunc) []character.SpellInstance {
	lvl := r.ClassLevel(class.ID)
	if lvl <= 0 {
		return nil
	}
	slots := progression.SpellsPerDay(class, lvl)
	owned := ownedNames(r)
	var out []character.SpellInstance
	for _, ds := range d.SpellsForDomain(domainKey) {
		name := ruleset.NormalizeKey(ds.SpellName)
		if !slots.Has(ds.Level) || owned[name] {
			continue
		}
		owned[name] = true
		out = append(out, NewInstance(newID(), ds.Spell, class.ID))
	}
	return out
}

func ownedNames(r *character.Record) map[string]bool {
	out := make(map[string]bool, len(r.Spells))
	for _, s := range r.Spells {
		out[ruleset.NormalizeKey(s.Name)] = true
	}
	return out
}
