// Package feats evaluates feat prerequisites and creates the feats a class
// grants automatically when it gains a level.
package feats

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/scripting"
)

// Catalog is the read-only catalog surface the evaluator needs.
type Catalog interface {
	progression.ClassLookup
	Feat(id string) (*ruleset.Feat, bool)
	Feats() []*ruleset.Feat
}

// Scripts evaluates named prerequisite predicates.
type Scripts interface {
	CallPredicate(ctx context.Context, name string, snap scripting.Snapshot) (bool, error)
}

// Result is the outcome of a prerequisite check. Reasons lists every failed
// requirement.
type Result struct {
	Met     bool
	Reasons []string
}

// Evaluator checks feat prerequisites against characters.
type Evaluator struct {
	catalog Catalog
	scripts Scripts
	logger  *zap.Logger
}

// NewEvaluator creates an Evaluator. scripts may be nil, in which case every
// scripted prerequisite counts as unmet.
//
// Precondition: catalog and logger must be non-nil.
func NewEvaluator(catalog Catalog, scripts Scripts, logger *zap.Logger) *Evaluator {
	return &Evaluator{catalog: catalog, scripts: scripts, logger: logger}
}

// MeetsPrerequisites checks every requirement of feat without short-circuiting.
//
// Unresolvable prerequisite feats and failing scripts are logged and count as
// unmet.
//
// Postcondition: Met is true exactly when Reasons is empty.
func (e *Evaluator) MeetsPrerequisites(ctx context.Context, r *character.Record, feat *ruleset.Feat) Result {
	var reasons []string

	for _, id := range feat.PrerequisiteFeats {
		req, ok := e.catalog.Feat(id)
		if !ok {
			e.logger.Warn("prerequisite feat not in catalog",
				zap.String("operation", "prerequisite"),
				zap.String("feat", feat.ID),
				zap.String("ref", id),
			)
			reasons = append(reasons, fmt.Sprintf("prerequisite feat %s cannot be found", id))
			continue
		}
		if !r.OwnsFeat(req.ID) {
			reasons = append(reasons, fmt.Sprintf("requires %s", req.Name))
		}
	}

	if feat.PrerequisiteBAB > 0 {
		if bab := progression.TotalBaseAttack(r, e.catalog); bab < feat.PrerequisiteBAB {
			reasons = append(reasons, fmt.Sprintf("requires base attack bonus +%d (current +%d)", feat.PrerequisiteBAB, bab))
		}
	}

	for _, key := range abilityOrder(feat.PrerequisiteAbilities) {
		need := feat.PrerequisiteAbilities[key]
		if need == 0 {
			continue
		}
		have := 0
		if a, ok := r.Abilities[key]; ok {
			have = a.Score()
		}
		if have < need {
			reasons = append(reasons, fmt.Sprintf("requires %s %d (current %d)", key, need, have))
		}
	}

	if feat.PrerequisiteHook != "" {
		if reason := e.checkHook(ctx, r, feat); reason != "" {
			reasons = append(reasons, reason)
		}
	}

	return Result{Met: len(reasons) == 0, Reasons: reasons}
}

func (e *Evaluator) checkHook(ctx context.Context, r *character.Record, feat *ruleset.Feat) string {
	hook := feat.PrerequisiteHook
	if e.scripts == nil {
		e.logger.Warn("scripted prerequisite without script engine",
			zap.String("operation", "prerequisite"),
			zap.String("feat", feat.ID),
			zap.String("hook", hook),
		)
		return fmt.Sprintf("prerequisite %s cannot be evaluated", hook)
	}
	ok, err := e.scripts.CallPredicate(ctx, hook, Snapshot(r, e.catalog))
	if err != nil {
		e.logger.Warn("scripted prerequisite failed",
			zap.String("operation", "prerequisite"),
			zap.String("feat", feat.ID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return fmt.Sprintf("prerequisite %s cannot be evaluated", hook)
	}
	if !ok {
		return fmt.Sprintf("does not meet %s", hook)
	}
	return ""
}

// abilityOrder returns the keys of req in sheet order, unknown keys last and sorted.
func abilityOrder(req map[string]int) []string {
	var out, extra []string
	for _, k := range character.AbilityKeys {
		if _, ok := req[k]; ok {
			out = append(out, k)
		}
	}
	for k := range req {
		if !isAbility(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func isAbility(k string) bool {
	for _, a := range character.AbilityKeys {
		if a == k {
			return true
		}
	}
	return false
}

// Snapshot builds the scripting view of r.
func Snapshot(r *character.Record, classes progression.ClassLookup) scripting.Snapshot {
	s := scripting.Snapshot{
		ID:          r.ID,
		Name:        r.Name,
		Level:       r.Level(),
		BAB:         progression.TotalBaseAttack(r, classes),
		Abilities:   make(map[string]int, len(r.Abilities)),
		ClassLevels: r.ClassLevels(),
		Skills:      make(map[string]float64, len(r.Skills)),
	}
	for k, a := range r.Abilities {
		s.Abilities[k] = a.Score()
	}
	for _, f := range r.Feats {
		s.Feats = append(s.Feats, f.SourceFeatID)
	}
	for _, sk := range r.Skills {
		s.Skills[ruleset.NormalizeKey(sk.Key)] += sk.Ranks
	}
	return s
}

// Eligible returns the catalog feats r may take now: prerequisites met, and not
// already owned unless repeatable. Sorted by name.
func (e *Evaluator) Eligible(ctx context.Context, r *character.Record) []*ruleset.Feat {
	var out []*ruleset.Feat
	for _, f := range e.catalog.Feats() {
		if r.OwnsFeat(f.ID) && !f.Repeatable {
			continue
		}
		if e.MeetsPrerequisites(ctx, r, f).Met {
			out = append(out, f)
		}
	}
	ruleset.SortByName(out, func(f *ruleset.Feat) string { return f.Name })
	return out
}
