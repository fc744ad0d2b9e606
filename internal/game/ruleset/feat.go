package ruleset

// Feat defines a feat and its structured prerequisites.
//
// PrerequisiteFeats holds catalog IDs of feats the character must already own.
// PrerequisiteAbilities maps ability keys (str, dex, con, int, wis, cha) to minimum
// effective scores; zero entries are ignored. PrerequisiteHook optionally names a
// scripted predicate evaluated against the character.
//
// Precondition: ID and Name must be non-empty after loading.
type Feat struct {
	ID                    string         `yaml:"id"`
	Key                   string         `yaml:"key"`
	Name                  string         `yaml:"name"`
	Description           string         `yaml:"description"`
	Repeatable            bool           `yaml:"repeatable"`
	PrerequisiteFeats     []string       `yaml:"prerequisite_feats"`
	PrerequisiteBAB       int            `yaml:"prerequisite_bab"`
	PrerequisiteAbilities map[string]int `yaml:"prerequisite_abilities"`
	PrerequisiteHook      string         `yaml:"prerequisite_hook"`
}
