package levelup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/dice"
	"github.com/cory-johannsen/srd/internal/game/feats"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/skills"
	"github.com/cory-johannsen/srd/internal/game/spells"
)

// Catalog is the read-only catalog surface a level-up needs.
type Catalog interface {
	spells.Catalog
	feats.Catalog
	skills.SkillLookup
	ClassSummaries() []ruleset.ClassSummary
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Catalog Catalog
	Store   character.Store
	Deriver *spells.Deriver
	Feats   *feats.Evaluator
	Roller  *dice.Roller
	Logger  *zap.Logger

	// IDs generates instance IDs; nil uses character.NewID.
	IDs character.IDFunc
}

// Engine starts level-up sessions and removes levels.
type Engine struct {
	catalog Catalog
	store   character.Store
	deriver *spells.Deriver
	feats   *feats.Evaluator
	roller  *dice.Roller
	logger  *zap.Logger
	newID   character.IDFunc
	policy  Policy
}

// NewEngine creates an Engine.
//
// Precondition: every field of deps except IDs must be non-nil.
func NewEngine(deps Deps, policy Policy) *Engine {
	ids := deps.IDs
	if ids == nil {
		ids = character.NewID
	}
	return &Engine{
		catalog: deps.Catalog,
		store:   deps.Store,
		deriver: deps.Deriver,
		feats:   deps.Feats,
		roller:  deps.Roller,
		logger:  deps.Logger,
		newID:   ids,
		policy:  policy,
	}
}

// Policy returns the rules the engine applies.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Begin reads the character and opens a session at the class choice step.
//
// Postcondition: Returns the store's error when the character cannot be read.
func (e *Engine) Begin(ctx context.Context, characterID string) (*Session, error) {
	r, err := e.store.Read(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("levelup: reading character %q: %w", characterID, err)
	}
	return newSession(e, r), nil
}
