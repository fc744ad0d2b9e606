package ruleset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content is one loaded pool of catalog definitions, such as the world pool or a
// compendium.
type Content struct {
	Name    string
	Classes []*Class
	Skills  []*Skill
	Feats   []*Feat
	Spells  []*Spell
	Domains []*Domain
}

// LoadClasses reads all .yaml files in dir and parses each as one or more Classes.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed classes (may be empty slice) or a non-nil error.
func LoadClasses(dir string) ([]*Class, error) {
	return loadDefinitions[Class](dir, "class")
}

// LoadSkills reads all .yaml files in dir and parses each as one or more Skills.
func LoadSkills(dir string) ([]*Skill, error) {
	return loadDefinitions[Skill](dir, "skill")
}

// LoadFeats reads all .yaml files in dir and parses each as one or more Feats.
func LoadFeats(dir string) ([]*Feat, error) {
	return loadDefinitions[Feat](dir, "feat")
}

// LoadSpells reads all .yaml files in dir and parses each as one or more Spells.
func LoadSpells(dir string) ([]*Spell, error) {
	return loadDefinitions[Spell](dir, "spell")
}

// LoadDomains reads all .yaml files in dir and parses each as one or more Domains.
func LoadDomains(dir string) ([]*Domain, error) {
	return loadDefinitions[Domain](dir, "domain")
}

// LoadContent loads a content pool rooted at root. Definitions are read from the
// classes, skills, feats, spells, and domains subdirectories; a missing
// subdirectory yields no definitions of that kind.
//
// Precondition: root must be a readable directory path.
// Postcondition: Returns the loaded Content or a non-nil error naming the failing file.
func LoadContent(name, root string) (*Content, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("content root %s: %w", root, err)
	}
	c := &Content{Name: name}
	var err error
	if c.Classes, err = loadOptional(filepath.Join(root, "classes"), LoadClasses); err != nil {
		return nil, err
	}
	if c.Skills, err = loadOptional(filepath.Join(root, "skills"), LoadSkills); err != nil {
		return nil, err
	}
	if c.Feats, err = loadOptional(filepath.Join(root, "feats"), LoadFeats); err != nil {
		return nil, err
	}
	if c.Spells, err = loadOptional(filepath.Join(root, "spells"), LoadSpells); err != nil {
		return nil, err
	}
	if c.Domains, err = loadOptional(filepath.Join(root, "domains"), LoadDomains); err != nil {
		return nil, err
	}
	return c, nil
}

func loadOptional[T any](dir string, load func(string) ([]*T, error)) ([]*T, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return load(dir)
}

// loadDefinitions parses every YAML file in dir. A file holds either a single
// mapping or a sequence of mappings.
func loadDefinitions[T any](dir, kind string) ([]*T, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s file %s: %w", kind, path, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		root := doc.Content[0]
		if root.Kind == yaml.SequenceNode {
			var many []*T
			if err := root.Decode(&many); err != nil {
				return nil, fmt.Errorf("parsing %s file %s: %w", kind, path, err)
			}
			out = append(out, many...)
			continue
		}
		var one T
		if err := root.Decode(&one); err != nil {
			return nil, fmt.Errorf("parsing %s file %s: %w", kind, path, err)
		}
		out = append(out, &one)
	}
	return out, nil
}

// yamlFiles returns the .yaml/.yml files of dir in lexical order.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
