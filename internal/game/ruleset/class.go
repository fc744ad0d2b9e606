package ruleset

// BABProgression names a base attack bonus progression.
type BABProgression string

const (
	BABGood    BABProgression = "good"
	BABAverage BABProgression = "average"
	BABPoor    BABProgression = "poor"
)

// SaveProgression names a saving throw progression.
type SaveProgression string

const (
	SaveGood SaveProgression = "good"
	SavePoor SaveProgression = "poor"
)

// CasterType is the magic tradition of a spellcasting class.
type CasterType string

const (
	CasterNone   CasterType = "none"
	CasterArcane CasterType = "arcane"
	CasterDivine CasterType = "divine"
)

// PreparationType describes how a caster readies spells.
type PreparationType string

const (
	PreparationNone        PreparationType = "none"
	PreparationPrepared    PreparationType = "prepared"
	PreparationSpontaneous PreparationType = "spontaneous"
)

// SpellListAccess describes how much of its class list a caster has access to.
//
// Full casters (clerics, druids) know their whole list; learned casters (wizards,
// sorcerers) start with nothing and add spells individually.
type SpellListAccess string

const (
	AccessNone    SpellListAccess = "none"
	AccessFull    SpellListAccess = "full"
	AccessLearned SpellListAccess = "learned"
)

// MaxSpellLevel is the highest spell level of the ruleset.
const MaxSpellLevel = 9

// ProgressionRow is one row of a sparse per-level table. Spells[n] is the value
// for spell level n; missing trailing columns read as 0.
type ProgressionRow struct {
	ClassLevel int   `yaml:"class_level"`
	Spells     []int `yaml:"spells"`
}

// Column returns the value for spell level col, or 0 when the row has no such column.
func (r ProgressionRow) Column(col int) int {
	if col < 0 || col >= len(r.Spells) {
		return 0
	}
	return r.Spells[col]
}

// Spellcasting holds the casting rules of a class.
type Spellcasting struct {
	Enabled         bool             `yaml:"enabled"`
	CasterType      CasterType       `yaml:"caster_type"`
	Preparation     PreparationType  `yaml:"preparation"`
	ListAccess      SpellListAccess  `yaml:"list_access"`
	SpellListKey    string           `yaml:"spell_list_key"`
	CastingAbility  string           `yaml:"casting_ability"`
	SpellsPerDay    []ProgressionRow `yaml:"spells_per_day"`
	SpellsKnown     []ProgressionRow `yaml:"spells_known"`
	SupportsDomains bool             `yaml:"supports_domains"`
}

// ClassSkill names a skill that is a class skill for a class.
type ClassSkill struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// AutoGrant describes feats granted automatically at a class level.
//
// When FeatID is set the feat is always granted. Otherwise FeatIDs is an ordered
// choice list and the first entry the character does not already own is granted.
type AutoGrant struct {
	Level   int      `yaml:"level"`
	FeatID  string   `yaml:"feat"`
	FeatIDs []string `yaml:"feats"`
}

// ClassFeature is a named feature gained at a class level.
type ClassFeature struct {
	Level    int    `yaml:"level"`
	FeatKey  string `yaml:"feat_key"`
	FeatName string `yaml:"feat_name"`
}

// Class defines a playable character class.
//
// Precondition: ID, Name, and HitDie must be non-zero after loading.
type Class struct {
	ID                  string                     `yaml:"id"`
	Name                string                     `yaml:"name"`
	Description         string                     `yaml:"description"`
	HitDie              int                        `yaml:"hit_die"`
	SkillPointsPerLevel int                        `yaml:"skill_points_per_level"`
	BAB                 BABProgression             `yaml:"bab"`
	Saves               map[string]SaveProgression `yaml:"saves"`
	Spellcasting        *Spellcasting              `yaml:"spellcasting"`
	ClassSkills         []ClassSkill               `yaml:"class_skills"`
	AutoGrantedFeats    []AutoGrant                `yaml:"auto_granted_feats"`
	Features            []ClassFeature             `yaml:"features"`
}

// IsCaster reports whether the class has enabled spellcasting rules.
func (c *Class) IsCaster() bool {
	return c.Spellcasting != nil && c.Spellcasting.Enabled
}

// ListAccess returns the class spell list access, AccessNone for non-casters.
func (c *Class) ListAccess() SpellListAccess {
	if !c.IsCaster() {
		return AccessNone
	}
	return c.Spellcasting.ListAccess
}

// ClassSkillKeys returns the keys of the class skills in declaration order.
func (c *Class) ClassSkillKeys() []string {
	keys := make([]string, 0, len(c.ClassSkills))
	for _, s := range c.ClassSkills {
		keys = append(keys, s.Key)
	}
	return keys
}

// FeaturesAt returns the class features gained at exactly classLevel.
func (c *Class) FeaturesAt(classLevel int) []ClassFeature {
	var out []ClassFeature
	for _, f := range c.Features {
		if f.Level == classLevel {
			out = append(out, f)
		}
	}
	return out
}

// ClassSummary is the listing form of a class.
type ClassSummary struct {
	ID     string
	Name   string
	HitDie int
	Caster bool
}
