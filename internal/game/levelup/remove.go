package levelup

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/skills"
)

// RemoveLastLevel builds the batch that undoes the character's most recent level.
//
// The batch pops the level entry, takes back the ranks it added, caps every
// skill at the lower character level, removes the feats it created or
// auto-granted, and removes spells the class no longer shows. A class that
// drops to level 0 is removed with its domains and shortlist.
//
// Postcondition: Returns ErrNoLevels for a level 0 character. r is not modified.
func (e *Engine) RemoveLastLevel(r *character.Record) (character.Mutations, error) {
	if r.Level() == 0 {
		return character.Mutations{}, ErrNoLevels
	}
	entry := r.LevelHistory[len(r.LevelHistory)-1]
	classID := entry.ClassID
	oldClassLevel := r.ClassLevel(classID)
	newClassLevel := oldClassLevel - 1

	m := character.Mutations{PopLevels: 1}

	ranks := make(map[string]float64, len(r.Skills))
	for _, s := range r.Skills {
		ranks[s.ID] = s.Ranks
	}
	var order []string
	touched := make(map[string]bool)
	for _, s := range r.Skills {
		added, ok := entry.SkillRanks[s.ID]
		if !ok || added == 0 {
			continue
		}
		ranks[s.ID] = math.Max(0, s.Ranks-added)
		order = append(order, s.ID)
		touched[s.ID] = true
	}
	preview := r.Clone()
	for i := range preview.Skills {
		preview.Skills[i].Ranks = ranks[preview.Skills[i].ID]
	}
	for _, u := range skills.CapAtLevel(preview, e.catalog, r.Level()-1) {
		if !touched[u.SkillID] {
			order = append(order, u.SkillID)
			touched[u.SkillID] = true
		}
		ranks[u.SkillID] = u.Ranks
	}
	for _, id := range order {
		m.SkillRanks = append(m.SkillRanks, character.SkillRankUpdate{SkillID: id, Ranks: ranks[id]})
	}

	created := make(map[string]bool, len(entry.FeatIDs))
	for _, id := range entry.FeatIDs {
		created[id] = true
	}
	for _, f := range r.Feats {
		src := f.AutoGrantedBy
		if created[f.ID] || (src != nil && src.ClassID == classID && src.Level == oldClassLevel) {
			m.RemoveFeatIDs = append(m.RemoveFeatIDs, f.ID)
		}
	}

	if newClassLevel == 0 {
		m.RemoveSpellIDs = e.deriver.SpellsToRemoveOnLevelChange(r, classID, nil, e.catalog)
		if r.HasClass(classID) {
			m.RemoveClassIDs = []string{classID}
		}
	} else {
		m.RemoveSpellIDs = e.deriver.SpellsToRemoveOnLevelChange(r, classID, &newClassLevel, e.catalog)
	}
	return m, nil
}

// PlanRemoveLevels builds one batch that undoes the character's last n levels,
// most recent first.
//
// Postcondition: Returns ErrTooManyLevels when n exceeds the character level and
// an empty batch for n <= 0.
func (e *Engine) PlanRemoveLevels(r *character.Record, n int) (character.Mutations, error) {
	if n <= 0 {
		return character.Mutations{}, nil
	}
	if n > r.Level() {
		return character.Mutations{}, fmt.Errorf("%w: %d of %d", ErrTooManyLevels, n, r.Level())
	}
	var out character.Mutations
	rankAt := make(map[string]int)
	cur := r
	for i := 0; i < n; i++ {
		step, err := e.RemoveLastLevel(cur)
		if err != nil {
			return character.Mutations{}, err
		}
		out.PopLevels += step.PopLevels
		out.RemoveClassIDs = append(out.RemoveClassIDs, step.RemoveClassIDs...)
		out.RemoveFeatIDs = append(out.RemoveFeatIDs, step.RemoveFeatIDs...)
		out.RemoveSpellIDs = append(out.RemoveSpellIDs, step.RemoveSpellIDs...)
		for _, u := range step.SkillRanks {
			if at, ok := rankAt[u.SkillID]; ok {
				out.SkillRanks[at] = u
				continue
			}
			rankAt[u.SkillID] = len(out.SkillRanks)
			out.SkillRanks = append(out.SkillRanks, u)
		}
		next, err := step.ApplyTo(cur)
		if err != nil {
			return character.Mutations{}, fmt.Errorf("levelup: removing level %d: %w", cur.Level(), err)
		}
		cur = next
	}
	return out, nil
}

// RemoveLevels removes the last n levels of the stored character in one batch
// and returns the updated record.
func (e *Engine) RemoveLevels(ctx context.Context, characterID string, n int) (*character.Record, error) {
	r, err := e.store.Read(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("levelup: reading character %q: %w", characterID, err)
	}
	m, err := e.PlanRemoveLevels(r, n)
	if err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return r, nil
	}
	if err := e.store.ApplyMutations(ctx, characterID, m); err != nil {
		return nil, fmt.Errorf("levelup: removing levels from %q: %w", characterID, err)
	}
	e.logger.Info("levels removed",
		zap.String("character", characterID),
		zap.Int("levels", m.PopLevels),
		zap.Strings("classes_removed", m.RemoveClassIDs),
		zap.Int("feats_removed", len(m.RemoveFeatIDs)),
		zap.Int("spells_removed", len(m.RemoveSpellIDs)),
	)
	return e.store.Read(ctx, characterID)
}
