package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/dice"
	"github.com/cory-johannsen/srd/internal/game/levelup"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/skills"
	"github.com/cory-johannsen/srd/internal/game/spells"
)

// request holds the choices for one non-interactive level-up.
type request struct {
	ClassID string
	Domains []string
	HP      string
	Skills  string
	FeatID  string
}

// runLevelUp walks a session through every step using req and commits it.
// Progress is written to w.
func runLevelUp(ctx context.Context, engine *levelup.Engine, id string, req request, w io.Writer) (*character.Record, error) {
	s, err := engine.Begin(ctx, id)
	if err != nil {
		return nil, err
	}
	step := func(v levelup.Validation, err error) error {
		if err != nil {
			return err
		}
		if !v.Valid {
			return fmt.Errorf("%s: %s", s.Step(), v.Reason)
		}
		return nil
	}

	if err := step(s.ChooseClass(req.ClassID, req.Domains...)); err != nil {
		return nil, err
	}
	if err := step(s.Next()); err != nil {
		return nil, err
	}

	switch req.HP {
	case "":
	case "roll":
		rolled, err := s.RollHP()
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "rolled %d hit points on d%d\n", rolled, s.Class().HitDie)
	default:
		n, err := strconv.Atoi(req.HP)
		if err != nil {
			return nil, fmt.Errorf("parsing -hp %q: %w", req.HP, err)
		}
		if err := s.EnterHP(n); err != nil {
			return nil, err
		}
	}
	if err := step(s.Next()); err != nil {
		return nil, err
	}

	points, err := parsePoints(req.Skills, s.SkillLines())
	if err != nil {
		return nil, err
	}
	res, err := s.SetSkillPoints(points)
	if err != nil {
		return nil, err
	}
	for _, key := range res.Ignored {
		fmt.Fprintf(w, "ignored skill %s\n", key)
	}
	if err := step(s.Next()); err != nil {
		return nil, err
	}

	if s.Step() == levelup.StepFeat {
		if req.FeatID == "" {
			if err := s.DeclineFeat(); err != nil {
				return nil, err
			}
		} else if err := step(s.SelectFeat(ctx, req.FeatID)); err != nil {
			return nil, err
		}
		if err := step(s.Next()); err != nil {
			return nil, err
		}
	} else if req.FeatID != "" {
		fmt.Fprintf(w, "level grants no feat; %s not taken\n", req.FeatID)
	}

	for _, f := range s.FeaturesGained() {
		fmt.Fprintf(w, "gained %s\n", f.FeatName)
	}
	return s.Commit(ctx)
}

// parseAbilities reads "str=10,dex=14" or rolls 4d6kh3 per ability for "roll".
// Missing abilities default to 10.
func parseAbilities(spec string, roller *dice.Roller) (map[string]int, error) {
	out := make(map[string]int, len(character.AbilityKeys))
	if strings.TrimSpace(spec) == "roll" {
		for _, k := range character.AbilityKeys {
			out[k] = roller.Roll(dice.AbilityScore, "ability_"+k).Total()
		}
		return out, nil
	}
	pairs, err := parsePairs(spec)
	if err != nil {
		return nil, err
	}
	for k, v := range pairs {
		if !isAbility(k) {
			return nil, fmt.Errorf("unknown ability %q", k)
		}
		out[k] = v
	}
	return out, nil
}

// parsePoints maps "climb=4,spot=2" onto pending-spend keys: the instance ID of
// an owned skill, or the synthetic key of a catalog skill.
func parsePoints(spec string, lines []skills.Line) (map[string]int, error) {
	pairs, err := parsePairs(spec)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]string, len(lines))
	for _, l := range lines {
		byKey[ruleset.NormalizeKey(l.Key)] = l.ID
	}
	out := make(map[string]int, len(pairs))
	for k, v := range pairs {
		id, ok := byKey[ruleset.NormalizeKey(k)]
		if !ok {
			id = skills.SyntheticKey(k)
		}
		out[id] += v
	}
	return out, nil
}

func parsePairs(spec string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range splitList(spec) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		out[strings.TrimSpace(strings.ToLower(k))] = n
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isAbility(k string) bool {
	for _, a := range character.AbilityKeys {
		if a == k {
			return true
		}
	}
	return false
}

func printSummary(w io.Writer, r *character.Record) {
	fmt.Fprintf(w, "%s (%s) level %d, %d hp\n", r.Name, r.ID, r.Level(), r.MaxHP())
	for _, c := range r.Classes {
		fmt.Fprintf(w, "  %s %d\n", c.Name, r.ClassLevel(c.ClassID))
	}
	for _, s := range r.Skills {
		if s.Ranks > 0 {
			fmt.Fprintf(w, "  skill %s %g\n", s.Name, s.Ranks)
		}
	}
	for _, f := range r.Feats {
		fmt.Fprintf(w, "  feat %s\n", f.Name)
	}
}

func printSpellbook(w io.Writer, book []spells.ClassSpells, unassigned []character.SpellInstance) {
	for _, cs := range book {
		fmt.Fprintf(w, "%s %d (%s)\n", cs.ClassName, cs.Level, cs.CasterType)
		for _, b := range cs.Levels {
			fmt.Fprintf(w, "  level %d: %d slots", b.Level, b.Slots)
			if b.KnownMax > 0 {
				fmt.Fprintf(w, ", %d/%d known", b.Known, b.KnownMax)
			}
			fmt.Fprintln(w)
			for _, e := range b.Spells {
				fmt.Fprintf(w, "    %s [%s]\n", e.Name, e.School())
			}
			for _, e := range b.DomainSpells {
				label := "domain"
				if e.Placeholder {
					label = "domain, not learned"
				}
				fmt.Fprintf(w, "    %s (%s)\n", e.Name, label)
			}
		}
	}
	for _, s := range unassigned {
		fmt.Fprintf(w, "unassigned %s\n", s.Name)
	}
}
