package ruleset

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source supplies one pool of catalog content. Load is called concurrently
// with the Load of other sources.
type Source interface {
	// Load returns the current content of the pool.
	Load() (*Content, error)
}

// DirSource loads content from a directory tree laid out for LoadContent.
type DirSource struct {
	Name string
	Root string
}

// Load implements Source.
func (d DirSource) Load() (*Content, error) {
	return LoadContent(d.Name, d.Root)
}

// StaticSource serves already-built content.
type StaticSource struct {
	Content *Content
}

// Load implements Source.
func (s StaticSource) Load() (*Content, error) {
	if s.Content == nil {
		return &Content{}, nil
	}
	return s.Content, nil
}

// Catalog is the merged, read-only view of every content pool. Sources are given
// in precedence order: when two pools define a definition with the same name
// (skills: the same key), the earlier pool wins.
//
// The merged view is built on first use and kept until Refresh. A failed first
// load is retried by the next lookup. Catalog is safe for concurrent use.
type Catalog struct {
	sources []Source
	logger  *zap.Logger

	mu   sync.RWMutex
	view *catalogView
	err  error
}

type catalogView struct {
	classes     []*Class
	classByID   map[string]*Class
	skills      []*Skill
	skillByKey  map[string]*Skill
	feats       []*Feat
	featByID    map[string]*Feat
	featByName  map[string]*Feat
	spells      []*Spell
	spellByID   map[string]*Spell
	domains     []*Domain
	domainByKey map[string]*Domain
	domainByID  map[string]*Domain
}

// NewCatalog creates a Catalog over sources, highest precedence first.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a Catalog whose view is loaded lazily.
func NewCatalog(logger *zap.Logger, sources ...Source) *Catalog {
	return &Catalog{sources: sources, logger: logger}
}

// Refresh discards the cached view and reloads every source.
//
// Postcondition: On error the previous view is kept and the error is returned.
func (c *Catalog) Refresh() error {
	v, err := c.build()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		return err
	}
	c.view, c.err = v, nil
	return nil
}

// Err returns the error of the last failed load, if any.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Catalog) current() *catalogView {
	c.mu.RLock()
	v := c.view
	c.mu.RUnlock()
	if v != nil {
		return v
	}
	if err := c.Refresh(); err != nil {
		c.logger.Error("loading catalog", zap.Error(err))
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.view != nil {
			return c.view
		}
		// Not cached: the next lookup retries the load.
		return newView()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func newView() *catalogView {
	return &catalogView{
		classByID:   make(map[string]*Class),
		skillByKey:  make(map[string]*Skill),
		featByID:    make(map[string]*Feat),
		featByName:  make(map[string]*Feat),
		spellByID:   make(map[string]*Spell),
		domainByKey: make(map[string]*Domain),
		domainByID:  make(map[string]*Domain),
	}
}

func (c *Catalog) build() (*catalogView, error) {
	contents := make([]*Content, len(c.sources))
	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			content, err := src.Load()
			if err != nil {
				return fmt.Errorf("loading catalog source %d: %w", i, err)
			}
			contents[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v := newView()
	classNames := make(map[string]bool)
	spellNames := make(map[string]bool)
	for _, content := range contents {
		for _, cl := range content.Classes {
			name := NormalizeKey(cl.Name)
			if classNames[name] || v.classByID[cl.ID] != nil {
				continue
			}
			classNames[name] = true
			v.classes = append(v.classes, cl)
			v.classByID[cl.ID] = cl
		}
		for _, s := range content.Skills {
			key := NormalizeKey(s.Key)
			if key == "" || v.skillByKey[key] != nil {
				continue
			}
			v.skills = append(v.skills, s)
			v.skillByKey[key] = s
		}
		for _, f := range content.Feats {
			name := NormalizeKey(f.Name)
			if v.featByName[name] != nil || v.featByID[f.ID] != nil {
				continue
			}
			v.feats = append(v.feats, f)
			v.featByName[name] = f
			v.featByID[f.ID] = f
		}
		for _, s := range content.Spells {
			name := NormalizeKey(s.Name)
			if spellNames[name] || v.spellByID[s.ID] != nil {
				continue
			}
			spellNames[name] = true
			v.spells = append(v.spells, s)
			v.spellByID[s.ID] = s
		}
		for _, d := range content.Domains {
			key := NormalizeKey(d.Key)
			if key == "" || v.domainByKey[key] != nil {
				continue
			}
			v.domains = append(v.domains, d)
			v.domainByKey[key] = d
			if d.ID != "" {
				v.domainByID[d.ID] = d
			}
		}
	}
	return v, nil
}

// Class returns the class with the given ID.
func (c *Catalog) Class(id string) (*Class, bool) {
	cl, ok := c.current().classByID[id]
	return cl, ok
}

// Classes returns every class in precedence order.
func (c *Catalog) Classes() []*Class {
	return append([]*Class(nil), c.current().classes...)
}

// ClassSummaries lists classes deduplicated by name, sorted by name.
func (c *Catalog) ClassSummaries() []ClassSummary {
	classes := c.current().classes
	out := make([]ClassSummary, 0, len(classes))
	for _, cl := range classes {
		out = append(out, ClassSummary{ID: cl.ID, Name: cl.Name, HitDie: cl.HitDie, Caster: cl.IsCaster()})
	}
	SortByName(out, func(s ClassSummary) string { return s.Name })
	return out
}

// Skill returns the skill with the given key, compared case-insensitively.
func (c *Catalog) Skill(key string) (*Skill, bool) {
	s, ok := c.current().skillByKey[NormalizeKey(key)]
	return s, ok
}

// SkillsByKey returns every skill indexed by normalized key.
func (c *Catalog) SkillsByKey() map[string]*Skill {
	src := c.current().skillByKey
	out := make(map[string]*Skill, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Feat returns the feat with the given ID.
func (c *Catalog) Feat(id string) (*Feat, bool) {
	f, ok := c.current().featByID[id]
	return f, ok
}

// FeatByName returns the feat with the given name, compared case-insensitively.
func (c *Catalog) FeatByName(name string) (*Feat, bool) {
	f, ok := c.current().featByName[NormalizeKey(name)]
	return f, ok
}

// Feats returns every feat in precedence order.
func (c *Catalog) Feats() []*Feat {
	return append([]*Feat(nil), c.current().feats...)
}

// AllSpells returns every spell in precedence order.
func (c *Catalog) AllSpells() []*Spell {
	return append([]*Spell(nil), c.current().spells...)
}

// Spell returns the spell with the given ID.
func (c *Catalog) Spell(id string) (*Spell, bool) {
	s, ok := c.current().spellByID[id]
	return s, ok
}

// Domain returns the domain with the given key, compared case-insensitively.
func (c *Catalog) Domain(key string) (*Domain, bool) {
	d, ok := c.current().domainByKey[NormalizeKey(key)]
	return d, ok
}

// Domains returns every domain in precedence order.
func (c *Catalog) Domains() []*Domain {
	return append([]*Domain(nil), c.current().domains...)
}

// Resolve looks up any definition by its catalog ID. The result is one of
// *Class, *Feat, *Spell, or *Domain.
//
// Postcondition: Returns nil and false for unknown IDs.
func (c *Catalog) Resolve(id string) (any, bool) {
	v := c.current()
	if f, ok := v.featByID[id]; ok {
		return f, true
	}
	if cl, ok := v.classByID[id]; ok {
		return cl, true
	}
	if s, ok := v.spellByID[id]; ok {
		return s, true
	}
	if d, ok := v.domainByID[id]; ok {
		return d, true
	}
	return nil, false
}
