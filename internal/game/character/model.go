// Package character defines the character record and the mutation batches that
// level-up and sheet edits apply to it.
package character

import (
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// Ability keys.
const (
	Str = "str"
	Dex = "dex"
	Con = "con"
	Int = "int"
	Wis = "wis"
	Cha = "cha"
)

// AbilityKeys lists the six abilities in sheet order.
var AbilityKeys = []string{Str, Dex, Con, Int, Wis, Cha}

// AbilityScore is one ability. Effective is the score after racial and item
// adjustments; nil means no adjustment applies.
type AbilityScore struct {
	Value     int  `json:"value"`
	Mod       int  `json:"mod"`
	Effective *int `json:"effective,omitempty"`
}

// Score returns the effective score, falling back to the base value.
func (a AbilityScore) Score() int {
	if a.Effective != nil {
		return *a.Effective
	}
	return a.Value
}

// Modifier returns floor((score - 10) / 2).
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// NewAbility builds an AbilityScore with its modifier derived from value.
func NewAbility(value int) AbilityScore {
	return AbilityScore{Value: value, Mod: Modifier(value)}
}

// LevelEntry records one character level. Index+1 in Record.LevelHistory is the
// character level.
type LevelEntry struct {
	ClassID  string `json:"class_id"`
	HPRolled int    `json:"hp_rolled"`

	// SkillRanks maps skill instance ID to ranks added at this level.
	SkillRanks map[string]float64 `json:"skill_ranks,omitempty"`

	// FeatIDs lists feat instances created at this level.
	FeatIDs []string `json:"feat_ids,omitempty"`

	// FeatureKeys lists the class features reached at this level.
	FeatureKeys []string `json:"feature_keys,omitempty"`
}

// ClassInstance is a class the character has taken, in order of acquisition.
type ClassInstance struct {
	ID      string `json:"id"`
	ClassID string `json:"class_id"`
	Name    string `json:"name"`
}

// SkillInstance is a skill owned by the character.
type SkillInstance struct {
	ID    string  `json:"id"`
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Ranks float64 `json:"ranks"`
}

// AutoGrantSource tags a feat that a class level granted.
type AutoGrantSource struct {
	ClassID string `json:"class_id"`
	Level   int    `json:"level"`
}

// FeatInstance is a feat owned by the character. SourceFeatID is the catalog
// feat it was copied from.
type FeatInstance struct {
	ID            string           `json:"id"`
	SourceFeatID  string           `json:"source_feat_id"`
	Key           string           `json:"key"`
	Name          string           `json:"name"`
	AutoGrantedBy *AutoGrantSource `json:"auto_granted_by,omitempty"`
}

// SpellInstance is a spell owned by the character. Per-list levels are copied
// from the catalog spell so derivation never depends on a generic level.
type SpellInstance struct {
	ID             string                `json:"id"`
	SourceSpellID  string                `json:"source_spell_id"`
	Name           string                `json:"name"`
	SchoolKey      string                `json:"school_key"`
	SchoolName     string                `json:"school_name"`
	LevelsByClass  []ruleset.ListLevel   `json:"levels_by_class"`
	LevelsByDomain []ruleset.DomainLevel `json:"levels_by_domain"`

	// ClassID is the class the spell was added for, empty for manual adds.
	ClassID string `json:"class_id,omitempty"`
}

// DomainAssignment is a domain chosen for a class.
type DomainAssignment struct {
	DomainKey  string `json:"domain_key"`
	DomainName string `json:"domain_name"`
}

// Record is a character's persistent rules state.
//
// Invariant: len(LevelHistory) is the character level; the level in a class is
// the number of entries with its ClassID.
type Record struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Abilities map[string]AbilityScore `json:"abilities"`

	LevelHistory []LevelEntry    `json:"level_history"`
	Classes      []ClassInstance `json:"classes"`
	Skills       []SkillInstance `json:"skills"`

	GrantedSkillKeys  []string `json:"granted_skill_keys"`
	ClassSkillKeys    []string `json:"class_skill_keys"`
	ExcludedSkillKeys []string `json:"excluded_skill_keys"`

	DomainsByClass        map[string][]DomainAssignment `json:"domains_by_class"`
	SpellShortlistByClass map[string][]string           `json:"spell_shortlist_by_class"`

	Feats  []FeatInstance  `json:"feats"`
	Spells []SpellInstance `json:"spells"`
}

// New returns an empty level-0 record with the given ability values.
func New(id, name string, abilities map[string]int) *Record {
	r := &Record{
		ID:                    id,
		Name:                  name,
		Abilities:             make(map[string]AbilityScore, len(AbilityKeys)),
		DomainsByClass:        make(map[string][]DomainAssignment),
		SpellShortlistByClass: make(map[string][]string),
	}
	for _, k := range AbilityKeys {
		v, ok := abilities[k]
		if !ok {
			v = 10
		}
		r.Abilities[k] = NewAbility(v)
	}
	return r
}

// Level returns the total character level.
func (r *Record) Level() int {
	return len(r.LevelHistory)
}

// ClassLevel returns the number of levels taken in classID.
func (r *Record) ClassLevel(classID string) int {
	n := 0
	for _, e := range r.LevelHistory {
		if e.ClassID == classID {
			n++
		}
	}
	return n
}

// ClassLevels returns the level in every class that has at least one level.
func (r *Record) ClassLevels() map[string]int {
	out := make(map[string]int)
	for _, e := range r.LevelHistory {
		out[e.ClassID]++
	}
	return out
}

// HasClass reports whether a class instance for classID exists.
func (r *Record) HasClass(classID string) bool {
	_, ok := r.ClassInstance(classID)
	return ok
}

// ClassInstance returns the class instance for classID.
func (r *Record) ClassInstance(classID string) (ClassInstance, bool) {
	for _, c := range r.Classes {
		if c.ClassID == classID {
			return c, true
		}
	}
	return ClassInstance{}, false
}

// AbilityMod returns the modifier of the effective score of ability key.
func (r *Record) AbilityMod(key string) int {
	a, ok := r.Abilities[key]
	if !ok {
		return 0
	}
	if a.Effective != nil {
		return Modifier(*a.Effective)
	}
	return a.Mod
}

// MaxHP returns the sum of rolled hit points plus the constitution modifier per level.
//
// Postcondition: each level contributes at least 1.
func (r *Record) MaxHP() int {
	con := r.AbilityMod(Con)
	total := 0
	for _, e := range r.LevelHistory {
		hp := e.HPRolled + con
		if hp < 1 {
			hp = 1
		}
		total += hp
	}
	return total
}

// Skill returns the skill instance with the given ID.
func (r *Record) Skill(id string) (SkillInstance, bool) {
	for _, s := range r.Skills {
		if s.ID == id {
			return s, true
		}
	}
	return SkillInstance{}, false
}

// SkillByKey returns the skill instance whose key matches, ignoring case.
func (r *Record) SkillByKey(key string) (SkillInstance, bool) {
	for _, s := range r.Skills {
		if ruleset.SameKey(s.Key, key) {
			return s, true
		}
	}
	return SkillInstance{}, false
}

// OwnsFeat reports whether the character owns an instance copied from featID.
func (r *Record) OwnsFeat(featID string) bool {
	for _, f := range r.Feats {
		if f.SourceFeatID == featID {
			return true
		}
	}
	return false
}

// HasSpellNamed reports whether a spell instance with the given name exists, ignoring case.
func (r *Record) HasSpellNamed(name string) bool {
	for _, s := range r.Spells {
		if ruleset.SameKey(s.Name, name) {
			return true
		}
	}
	return false
}

// Domains returns the domains assigned to classID.
func (r *Record) Domains(classID string) []DomainAssignment {
	return r.DomainsByClass[classID]
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	out.Abilities = make(map[string]AbilityScore, len(r.Abilities))
	for k, v := range r.Abilities {
		if v.Effective != nil {
			e := *v.Effective
			v.Effective = &e
		}
		out.Abilities[k] = v
	}
	out.LevelHistory = make([]LevelEntry, len(r.LevelHistory))
	for i, e := range r.LevelHistory {
		out.LevelHistory[i] = e.clone()
	}
	out.Classes = append([]ClassInstance(nil), r.Classes...)
	out.Skills = append([]SkillInstance(nil), r.Skills...)
	out.GrantedSkillKeys = append([]string(nil), r.GrantedSkillKeys...)
	out.ClassSkillKeys = append([]string(nil), r.ClassSkillKeys...)
	out.ExcludedSkillKeys = append([]string(nil), r.ExcludedSkillKeys...)
	out.DomainsByClass = make(map[string][]DomainAssignment, len(r.DomainsByClass))
	for k, v := range r.DomainsByClass {
		out.DomainsByClass[k] = append([]DomainAssignment(nil), v...)
	}
	out.SpellShortlistByClass = make(map[string][]string, len(r.SpellShortlistByClass))
	for k, v := range r.SpellShortlistByClass {
		out.SpellShortlistByClass[k] = append([]string(nil), v...)
	}
	out.Feats = make([]FeatInstance, len(r.Feats))
	for i, f := range r.Feats {
		if f.AutoGrantedBy != nil {
			src := *f.AutoGrantedBy
			f.AutoGrantedBy = &src
		}
		out.Feats[i] = f
	}
	out.Spells = make([]SpellInstance, len(r.Spells))
	for i, s := range r.Spells {
		s.LevelsByClass = append([]ruleset.ListLevel(nil), s.LevelsByClass...)
		s.LevelsByDomain = append([]ruleset.DomainLevel(nil), s.LevelsByDomain...)
		out.Spells[i] = s
	}
	return &out
}

func (e LevelEntry) clone() LevelEntry {
	out := e
	if e.SkillRanks != nil {
		out.SkillRanks = make(map[string]float64, len(e.SkillRanks))
		for k, v := range e.SkillRanks {
			out.SkillRanks[k] = v
		}
	}
	out.FeatIDs = append([]string(nil), e.FeatIDs...)
	out.FeatureKeys = append([]string(nil), e.FeatureKeys...)
	return out
}
