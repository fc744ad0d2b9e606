package spells

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// NoSchool labels arcane spells with neither a school name nor a school key.
const NoSchool = "No school"

// Catalog is the read-only catalog surface the resolver needs.
type Catalog interface {
	SpellIndex
	Class(id string) (*ruleset.Class, bool)
	Domain(key string) (*ruleset.Domain, bool)
}

// Entry is one spell shown for a class. Placeholder entries stand for domain
// spells the character is owed but has no instance of; they are never persisted.
type Entry struct {
	InstanceID  string
	SpellID     string
	Name        string
	SchoolKey   string
	SchoolName  string
	Level       int
	Domain      bool
	Placeholder bool
	Shortlisted bool
}

// School returns the grouping label of the entry.
func (e Entry) School() string {
	switch {
	case e.SchoolName != "":
		return e.SchoolName
	case e.SchoolKey != "":
		return e.SchoolKey
	default:
		return NoSchool
	}
}

// SchoolGroup is the spells of one school within a level.
type SchoolGroup struct {
	School string
	Spells []Entry
}

// LevelBucket holds the spells of one spell level of a class.
type LevelBucket struct {
	Level int
	Slots int

	// Spells is the main list: real class-list and domain spell instances.
	Spells []Entry

	// DomainSpells holds real domain spell instances and placeholders.
	DomainSpells []Entry

	// Schools groups Spells by school; set for arcane casters only.
	Schools []SchoolGroup

	// Known and KnownMax are set for spontaneous casters. OverLimit is advisory.
	Known     int
	KnownMax  int
	OverLimit bool
}

// ClassSpells is the spellbook of one caster class.
type ClassSpells struct {
	ClassID    string
	ClassName  string
	CasterType ruleset.CasterType
	Level      int
	Levels     []LevelBucket
}

// Resolver partitions a character's spells by caster class and level.
type Resolver struct {
	catalog Catalog
	deriver *Deriver
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: catalog, deriver and logger must be non-nil.
func NewResolver(catalog Catalog, deriver *Deriver, logger *zap.Logger) *Resolver {
	return &Resolver{catalog: catalog, deriver: deriver, logger: logger}
}

// Resolve returns the spellbook of every enabled caster class of r in order of
// acquisition. Each spell instance is shown under at most one class: the first
// class, in acquisition order, that classifies it.
func (res *Resolver) Resolve(r *character.Record) []ClassSpells {
	claimed := make(map[string]bool)
	var out []ClassSpells
	for _, cc := range progression.CasterClasses(r, res.catalog, nil) {
		out = append(out, res.resolveClass(r, cc, claimed))
	}
	return out
}

// Unassigned returns the spell instances no caster class of r shows.
func (res *Resolver) Unassigned(r *character.Record) []character.SpellInstance {
	shown := make(map[string]bool)
	for _, cs := range res.Resolve(r) {
		for _, b := range cs.Levels {
			for _, e := range b.Spells {
				shown[e.InstanceID] = true
			}
		}
	}
	var out []character.SpellInstance
	for _, s := range r.Spells {
		if !shown[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

func (res *Resolver) resolveClass(r *character.Record, cc progression.CasterClass, claimed map[string]bool) ClassSpells {
	for _, d := range r.Domains(cc.Class.ID) {
		if _, ok := res.catalog.Domain(d.DomainKey); !ok {
			res.logger.Warn("domain not in catalog",
				zap.String("operation", "domain"),
				zap.String("domain", d.DomainKey),
				zap.String("class", cc.Class.ID),
			)
		}
	}
	rules := res.deriver.rulesFor(r, cc.Class, cc.Level)
	shortlist := idSet(r.SpellShortlistByClass[cc.Class.ID])

	buckets := make(map[int]*LevelBucket)
	for lvl, n := range cc.PerDay {
		if n > 0 {
			buckets[lvl] = &LevelBucket{Level: lvl, Slots: n}
		}
	}

	for _, inst := range r.Spells {
		if claimed[inst.ID] {
			continue
		}
		lvl, domain, ok := rules.classify(inst)
		if !ok {
			continue
		}
		claimed[inst.ID] = true
		e := Entry{
			InstanceID:  inst.ID,
			SpellID:     inst.SourceSpellID,
			Name:        inst.Name,
			SchoolKey:   inst.SchoolKey,
			SchoolName:  inst.SchoolName,
			Level:       lvl,
			Domain:      domain,
			Shortlisted: shortlist[inst.ID],
		}
		b := buckets[lvl]
		b.Spells = append(b.Spells, e)
		if domain {
			b.DomainSpells = append(b.DomainSpells, e)
		}
	}

	owned := ownedNames(r)
	for _, d := range r.Domains(cc.Class.ID) {
		for _, ds := range res.deriver.SpellsForDomain(d.DomainKey) {
			name := ruleset.NormalizeKey(ds.SpellName)
			b, ok := buckets[ds.Level]
			if !ok || owned[name] {
				continue
			}
			owned[name] = true
			b.DomainSpells = append(b.DomainSpells, Entry{
				SpellID:     ds.Spell.ID,
				Name:        ds.Spell.Name,
				SchoolKey:   ds.Spell.SchoolKey,
				SchoolName:  ds.Spell.SchoolName,
				Level:       ds.Level,
				Domain:      true,
				Placeholder: true,
			})
		}
	}

	known := progression.SpellsKnown(cc.Class, cc.Level)
	spontaneous := cc.Class.Spellcasting.Preparation == ruleset.PreparationSpontaneous
	arcane := cc.Class.Spellcasting.CasterType == ruleset.CasterArcane

	cs := ClassSpells{
		ClassID:    cc.Class.ID,
		ClassName:  cc.Class.Name,
		CasterType: cc.Class.Spellcasting.CasterType,
		Level:      cc.Level,
	}
	for lvl := 0; lvl <= ruleset.MaxSpellLevel; lvl++ {
		b, ok := buckets[lvl]
		if !ok {
			continue
		}
		ruleset.SortByName(b.Spells, entryName)
		ruleset.SortByName(b.DomainSpells, entryName)
		if arcane {
			b.Schools = groupBySchool(b.Spells)
		}
		if spontaneous {
			b.Known = len(b.Spells)
			b.KnownMax = known[lvl]
			b.OverLimit = b.Known > b.KnownMax
		}
		cs.Levels = append(cs.Levels, *b)
	}
	return cs
}

func idSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func entryName(e Entry) string {
	return e.Name
}

func groupBySchool(entries []Entry) []SchoolGroup {
	index := make(map[string]int)
	var groups []SchoolGroup
	for _, e := range entries {
		label := e.School()
		key := ruleset.NormalizeKey(label)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SchoolGroup{School: label})
		}
		groups[i].Spells = append(groups[i].Spells, e)
	}
	ruleset.SortByName(groups, func(g SchoolGroup) string { return g.School })
	return groups
}
