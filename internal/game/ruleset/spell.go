package ruleset

// ListLevel places a spell on a class list at a level.
type ListLevel struct {
	ClassKey string `yaml:"class" json:"class"`
	Level    int    `yaml:"level" json:"level"`
}

// DomainLevel places a spell on a domain list at a level.
type DomainLevel struct {
	DomainKey string `yaml:"domain" json:"domain"`
	Level     int    `yaml:"level" json:"level"`
}

// Spell defines a spell. A spell's level is per list: it may sit on several class
// lists and several domain lists at different levels.
//
// Domains carry no spell list of their own; LevelsByDomain is the only place the
// domain-to-spell relationship is stored.
//
// Precondition: ID and Name must be non-empty after loading.
type Spell struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	SchoolKey      string        `yaml:"school"`
	SchoolName     string        `yaml:"school_name"`
	Description    string        `yaml:"description"`
	LevelsByClass  []ListLevel   `yaml:"levels_by_class"`
	LevelsByDomain []DomainLevel `yaml:"levels_by_domain"`
}

// LevelForClass returns the spell's level on the class list identified by listKey.
//
// Postcondition: ok is false when the spell is not on that list.
func (s *Spell) LevelForClass(listKey string) (level int, ok bool) {
	return LevelOnList(s.LevelsByClass, listKey)
}

// LevelOnList returns the level recorded for listKey in levels.
func LevelOnList(levels []ListLevel, listKey string) (int, bool) {
	key := NormalizeKey(listKey)
	if key == "" {
		return 0, false
	}
	for _, l := range levels {
		if NormalizeKey(l.ClassKey) == key {
			return l.Level, true
		}
	}
	return 0, false
}

// Domain defines a cleric domain. It has no spell list: spells reference domains.
//
// Precondition: Key and Name must be non-empty after loading.
type Domain struct {
	ID          string `yaml:"id"`
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}
