package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// ErrInvalidMutation is returned when a batch cannot be applied to a record.
var ErrInvalidMutation = errors.New("invalid mutation")

// SkillRankUpdate sets the ranks of an existing or newly created skill.
type SkillRankUpdate struct {
	SkillID string  `json:"skill_id"`
	Ranks   float64 `json:"ranks"`
}

// Mutations is one atomic batch of record changes. Removals apply before
// additions; level entries are appended last.
type Mutations struct {
	PopLevels      int      `json:"pop_levels,omitempty"`
	RemoveClassIDs []string `json:"remove_class_ids,omitempty"`
	RemoveFeatIDs  []string `json:"remove_feat_ids,omitempty"`
	RemoveSpellIDs []string `json:"remove_spell_ids,omitempty"`

	NewClasses        []ClassInstance   `json:"new_classes,omitempty"`
	AddClassSkillKeys []string          `json:"add_class_skill_keys,omitempty"`
	NewSkills         []SkillInstance   `json:"new_skills,omitempty"`
	SkillRanks        []SkillRankUpdate `json:"skill_ranks,omitempty"`
	NewFeats          []FeatInstance    `json:"new_feats,omitempty"`
	NewSpells         []SpellInstance   `json:"new_spells,omitempty"`
	AppendLevels      []LevelEntry      `json:"append_levels,omitempty"`

	// SetDomains replaces the domains of the classes it names.
	SetDomains map[string][]DomainAssignment `json:"set_domains,omitempty"`
}

// IsEmpty reports whether the batch changes nothing.
func (m Mutations) IsEmpty() bool {
	return m.PopLevels == 0 && len(m.RemoveClassIDs) == 0 && len(m.RemoveFeatIDs) == 0 &&
		len(m.RemoveSpellIDs) == 0 && len(m.NewClasses) == 0 && len(m.AddClassSkillKeys) == 0 &&
		len(m.NewSkills) == 0 && len(m.SkillRanks) == 0 && len(m.NewFeats) == 0 &&
		len(m.NewSpells) == 0 && len(m.AppendLevels) == 0 && len(m.SetDomains) == 0
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMutation, fmt.Sprintf(format, args...))
}

// ApplyTo returns a copy of r with m applied. r is never modified.
//
// Postcondition: Returns the new record, or an error wrapping ErrInvalidMutation
// and no partial result.
func (m Mutations) ApplyTo(r *Record) (*Record, error) {
	out := r.Clone()

	if m.PopLevels < 0 || m.PopLevels > len(out.LevelHistory) {
		return nil, invalid("cannot remove %d of %d levels", m.PopLevels, len(out.LevelHistory))
	}
	out.LevelHistory = out.LevelHistory[:len(out.LevelHistory)-m.PopLevels]

	removeClasses := make(map[string]bool, len(m.RemoveClassIDs))
	for _, id := range m.RemoveClassIDs {
		if !out.HasClass(id) {
			return nil, invalid("class %q not on character", id)
		}
		removeClasses[id] = true
	}
	classes := out.Classes[:0]
	for _, c := range out.Classes {
		if !removeClasses[c.ClassID] {
			classes = append(classes, c)
		}
	}
	out.Classes = classes
	for id := range removeClasses {
		delete(out.DomainsByClass, id)
		delete(out.SpellShortlistByClass, id)
	}

	var err error
	if out.Feats, err = removeByID(out.Feats, m.RemoveFeatIDs, func(f FeatInstance) string { return f.ID }, "feat"); err != nil {
		return nil, err
	}
	if out.Spells, err = removeByID(out.Spells, m.RemoveSpellIDs, func(s SpellInstance) string { return s.ID }, "spell"); err != nil {
		return nil, err
	}

	for _, c := range m.NewClasses {
		if c.ID == "" || c.ClassID == "" {
			return nil, invalid("class instance requires id and class id")
		}
		if out.HasClass(c.ClassID) {
			return nil, invalid("class %q already on character", c.ClassID)
		}
		out.Classes = append(out.Classes, c)
	}

	for classID, domains := range m.SetDomains {
		if !out.HasClass(classID) {
			return nil, invalid("domains set for class %q not on character", classID)
		}
		out.DomainsByClass[classID] = append([]DomainAssignment(nil), domains...)
	}

	known := ruleset.KeySet(out.ClassSkillKeys)
	for _, k := range m.AddClassSkillKeys {
		n := ruleset.NormalizeKey(k)
		if n == "" || known[n] {
			continue
		}
		known[n] = true
		out.ClassSkillKeys = append(out.ClassSkillKeys, k)
	}

	for _, s := range m.NewSkills {
		if s.ID == "" {
			return nil, invalid("skill instance requires id")
		}
		if _, dup := out.Skill(s.ID); dup {
			return nil, invalid("skill %q already exists", s.ID)
		}
		if s.Ranks < 0 {
			return nil, invalid("skill %q has negative ranks", s.ID)
		}
		out.Skills = append(out.Skills, s)
	}
	for _, u := range m.SkillRanks {
		if u.Ranks < 0 {
			return nil, invalid("skill %q would have negative ranks", u.SkillID)
		}
		found := false
		for i := range out.Skills {
			if out.Skills[i].ID == u.SkillID {
				out.Skills[i].Ranks = u.Ranks
				found = true
				break
			}
		}
		if !found {
			return nil, invalid("skill %q not on character", u.SkillID)
		}
	}

	featIDs := make(map[string]bool, len(out.Feats))
	for _, f := range out.Feats {
		featIDs[f.ID] = true
	}
	for _, f := range m.NewFeats {
		if f.ID == "" || featIDs[f.ID] {
			return nil, invalid("feat instance id %q missing or duplicated", f.ID)
		}
		featIDs[f.ID] = true
		out.Feats = append(out.Feats, f)
	}

	spellIDs := make(map[string]bool, len(out.Spells))
	for _, s := range out.Spells {
		spellIDs[s.ID] = true
	}
	for _, s := range m.NewSpells {
		if s.ID == "" || spellIDs[s.ID] {
			return nil, invalid("spell instance id %q missing or duplicated", s.ID)
		}
		spellIDs[s.ID] = true
		out.Spells = append(out.Spells, s)
	}

	for _, e := range m.AppendLevels {
		if !out.HasClass(e.ClassID) {
			return nil, invalid("level entry references class %q not on character", e.ClassID)
		}
		if e.HPRolled < 0 {
			return nil, invalid("level entry has negative hit points")
		}
		out.LevelHistory = append(out.LevelHistory, e.clone())
	}

	for id := range removeClasses {
		if out.ClassLevel(id) > 0 {
			return nil, invalid("class %q removed while levels remain", id)
		}
	}
	return out, nil
}

func removeByID[T any](items []T, ids []string, id func(T) string, kind string) ([]T, error) {
	if len(ids) == 0 {
		return items, nil
	}
	drop := make(map[string]bool, len(ids))
	for _, i := range ids {
		drop[i] = true
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if drop[id(it)] {
			delete(drop, id(it))
			continue
		}
		out = append(out, it)
	}
	for missing := range drop {
		return nil, invalid("%s %q not on character", kind, missing)
	}
	return out, nil
}
