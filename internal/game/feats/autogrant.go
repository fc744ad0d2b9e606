package feats

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// NewInstance copies catalog feat f into a feat instance. source is nil for
// feats the player chose.
func NewInstance(id string, f *ruleset.Feat, source *character.AutoGrantSource) character.FeatInstance {
	return character.FeatInstance{
		ID:            id,
		SourceFeatID:  f.ID,
		Key:           f.Key,
		Name:          f.Name,
		AutoGrantedBy: source,
	}
}

// CreateAutoGrantedFeatsForLevel returns the feat instances class grants at
// newClassLevel. A grant is skipped when r already holds one of its feats from
// the same class level. A conditional list grants its first feat that r does not
// own. Unresolvable feats are logged and skipped.
//
// Postcondition: Applying the result and calling again for the same class and
// level returns nil.
func (e *Evaluator) CreateAutoGrantedFeatsForLevel(r *character.Record, class *ruleset.Class, newClassLevel int, newID character.IDFunc) []character.FeatInstance {
	source := character.AutoGrantSource{ClassID: class.ID, Level: newClassLevel}
	owned := make(map[string]bool, len(r.Feats))
	granted := make(map[string]bool)
	for _, f := range r.Feats {
		owned[f.SourceFeatID] = true
		if f.AutoGrantedBy != nil && *f.AutoGrantedBy == source {
			granted[f.SourceFeatID] = true
		}
	}

	var out []character.FeatInstance
	add := func(f *ruleset.Feat) {
		src := source
		out = append(out, NewInstance(newID(), f, &src))
		owned[f.ID] = true
		granted[f.ID] = true
	}
	for _, g := range class.AutoGrantedFeats {
		if g.Level != newClassLevel {
			continue
		}
		if g.FeatID != "" {
			if granted[g.FeatID] {
				continue
			}
			if f, ok := e.resolve(class, g.FeatID); ok {
				add(f)
			}
			continue
		}
		if anyGranted(granted, g.FeatIDs) {
			continue
		}
		for _, id := range g.FeatIDs {
			if owned[id] {
				continue
			}
			if f, ok := e.resolve(class, id); ok {
				add(f)
				break
			}
		}
	}
	return out
}

func anyGranted(granted map[string]bool, ids []string) bool {
	for _, id := range ids {
		if granted[id] {
			return true
		}
	}
	return false
}

func (e *Evaluator) resolve(class *ruleset.Class, id string) (*ruleset.Feat, bool) {
	f, ok := e.catalog.Feat(id)
	if !ok {
		e.logger.Warn("auto-granted feat not in catalog",
			zap.String("operation", "auto_grant"),
			zap.String("class", class.ID),
			zap.String("ref", id),
		)
	}
	return f, ok
}
