// Package levelup sequences a character level-up: class selection, hit points,
// skill points and feat choice, then commits the result as one mutation batch.
// It also builds the batches that remove levels.
package levelup

import (
	"errors"

	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

var (
	// ErrNegativeHP is returned for hit point entries below zero.
	ErrNegativeHP = errors.New("levelup: hit points must not be negative")
	// ErrNoLevels is returned when removing a level from a level 0 character.
	ErrNoLevels = errors.New("levelup: character has no levels")
	// ErrTooManyLevels is returned when removing more levels than the character has.
	ErrTooManyLevels = errors.New("levelup: cannot remove more levels than the character has")
	// ErrNoPendingClass is returned when committing without a chosen class.
	ErrNoPendingClass = errors.New("levelup: no class chosen")
	// ErrInvalidTransition is returned for an operation not allowed in the current step.
	ErrInvalidTransition = errors.New("levelup: operation not allowed in this step")
)

// Validation is a blocking, user-facing condition. The zero value is invalid.
type Validation struct {
	Valid  bool
	Reason string
}

// OK is the passing Validation.
var OK = Validation{Valid: true}

func invalid(reason string) Validation {
	return Validation{Reason: reason}
}

// Policy holds the table rules a level-up follows.
type Policy struct {
	// FullHPAtFirstLevel pre-fills the first character level with the hit die maximum.
	FullHPAtFirstLevel bool

	// FighterClass is the class ID or name that earns fighter bonus feats.
	FighterClass string

	FeatLevels progression.FeatLevels
}

// DefaultPolicy returns the standard rules.
func DefaultPolicy() Policy {
	return Policy{
		FullHPAtFirstLevel: true,
		FighterClass:       "fighter",
		FeatLevels:         progression.DefaultFeatLevels(),
	}
}

// IsFighter reports whether class earns fighter bonus feats.
func (p Policy) IsFighter(class *ruleset.Class) bool {
	if p.FighterClass == "" || class == nil {
		return false
	}
	return ruleset.SameKey(class.ID, p.FighterClass) || ruleset.SameKey(class.Name, p.FighterClass)
}
