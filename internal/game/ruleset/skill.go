package ruleset

// Skill defines a skill available in the catalog.
//
// Exclusive skills are usable only by characters whose class, race, or a grant
// lists them explicitly.
//
// Precondition: Key and Name must be non-empty after loading.
type Skill struct {
	ID        string `yaml:"id"`
	Key       string `yaml:"key"`
	Name      string `yaml:"name"`
	Ability   string `yaml:"ability"`
	Exclusive bool   `yaml:"exclusive"`
}
