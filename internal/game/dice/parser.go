package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed dice expression.
//
// Invariant: Count >= 1, Sides >= 2 and 0 <= KeepHighest < Count after Parse.
type Expression struct {
	Raw         string
	Count       int
	Sides       int
	Modifier    int
	KeepHighest int
}

// Parse parses "d8", "1d10", "2d6+3", "1d4-1" and "4d6kh3".
//
// Postcondition: Returns a valid Expression or an error naming the bad part.
func Parse(expr string) (Expression, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	countStr, rest, ok := strings.Cut(strings.ToLower(raw), "d")
	if !ok {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	e := Expression{Raw: raw, Count: 1}
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q", raw)
		}
		e.Count = n
	}

	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		mod, err := strconv.Atoi(rest[i:])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
		e.Modifier = mod
		rest = rest[:i]
	}

	if sides, keep, ok := strings.Cut(rest, "kh"); ok {
		kh, err := strconv.Atoi(keep)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid kh value in %q: %w", raw, err)
		}
		if kh <= 0 || kh >= e.Count {
			return Expression{}, fmt.Errorf("dice: kh value %d must be > 0 and < count %d in %q", kh, e.Count, raw)
		}
		e.KeepHighest = kh
		rest = sides
	}

	sides, err := strconv.Atoi(rest)
	if err != nil || sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q", raw)
	}
	e.Sides = sides
	return e, nil
}

// MustParse parses expr and panics on error.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// HitDie returns the expression rolling one die of the given size, "1d<sides>".
//
// Precondition: sides >= 2.
func HitDie(sides int) Expression {
	return Expression{Raw: fmt.Sprintf("1d%d", sides), Count: 1, Sides: sides}
}

// AbilityScore is the standard 4d6, keep the highest three.
var AbilityScore = MustParse("4d6kh3")
