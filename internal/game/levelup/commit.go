package levelup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/feats"
	"github.com/cory-johannsen/srd/internal/game/spells"
)

// Plan builds the mutation batch Commit would apply, without writing it.
//
// The batch appends the level entry, applies the skill spend, adds the chosen
// feat and the class's auto-granted feats, and adjusts spells: a new full-list
// caster receives its level 1 list, a new learned caster drops speculative
// spells, an existing full-list caster receives newly unlocked spell levels, and
// owed domain spells are added.
//
// Postcondition: Returns ErrNoPendingClass without a class and
// ErrInvalidTransition outside the review step.
func (s *Session) Plan() (character.Mutations, error) {
	if s.class == nil {
		return character.Mutations{}, ErrNoPendingClass
	}
	if err := s.require(StepReview); err != nil {
		return character.Mutations{}, err
	}
	e := s.engine
	class := s.class
	classLevelAfter := s.ClassLevelAfter()

	var m character.Mutations
	if s.newClass {
		m.NewClasses = []character.ClassInstance{{ID: e.newID(), ClassID: class.ID, Name: class.Name}}
		m.AddClassSkillKeys = class.ClassSkillKeys()
		if len(s.domains) > 0 {
			m.SetDomains = map[string][]character.DomainAssignment{class.ID: s.domains}
		}
		m.RemoveSpellIDs = e.deriver.SpeculativeForLearned(s.record, class, e.catalog)
	}

	skillPlan, err := s.spend.Plan(e.newID)
	if err != nil {
		return character.Mutations{}, err
	}
	m.NewSkills = skillPlan.NewSkills
	m.SkillRanks = skillPlan.Updates

	entry := character.LevelEntry{ClassID: class.ID, HPRolled: *s.hp}
	for _, f := range s.FeaturesGained() {
		entry.FeatureKeys = append(entry.FeatureKeys, f.FeatKey)
	}
	if len(skillPlan.Added) > 0 {
		entry.SkillRanks = skillPlan.Added
	}
	if s.feat != nil {
		inst := feats.NewInstance(e.newID(), s.feat, nil)
		m.NewFeats = append(m.NewFeats, inst)
		entry.FeatIDs = append(entry.FeatIDs, inst.ID)
	}
	m.AppendLevels = []character.LevelEntry{entry}

	preview, err := m.ApplyTo(s.record)
	if err != nil {
		return character.Mutations{}, fmt.Errorf("levelup: building level: %w", err)
	}

	auto := e.feats.CreateAutoGrantedFeatsForLevel(preview, class, classLevelAfter, e.newID)
	m.NewFeats = append(m.NewFeats, auto...)
	for _, f := range auto {
		m.AppendLevels[0].FeatIDs = append(m.AppendLevels[0].FeatIDs, f.ID)
	}
	if len(auto) > 0 {
		preview.Feats = append(preview.Feats, auto...)
	}

	if class.IsCaster() {
		granted := spells.ClassListGrants(preview, class, spells.UnlockedLevels(class, classLevelAfter-1, classLevelAfter), e.catalog, e.newID)
		preview.Spells = append(preview.Spells, granted...)
		m.NewSpells = append(m.NewSpells, granted...)
		for _, d := range preview.Domains(class.ID) {
			owed := e.deriver.AddDomainSpells(preview, class, d.DomainKey, e.newID)
			preview.Spells = append(preview.Spells, owed...)
			m.NewSpells = append(m.NewSpells, owed...)
		}
	}

	if _, err := m.ApplyTo(s.record); err != nil {
		return character.Mutations{}, fmt.Errorf("levelup: validating batch: %w", err)
	}
	return m, nil
}

// Commit applies the level-up to the store as one batch and returns the
// updated character.
//
// Postcondition: On error nothing is written and the session stays in review.
func (s *Session) Commit(ctx context.Context) (*character.Record, error) {
	m, err := s.Plan()
	if err != nil {
		return nil, err
	}
	e := s.engine
	if err := e.store.ApplyMutations(ctx, s.record.ID, m); err != nil {
		return nil, fmt.Errorf("levelup: committing character %q: %w", s.record.ID, err)
	}
	s.step = StepCommitted
	e.logger.Info("level up committed",
		zap.String("character", s.record.ID),
		zap.String("class", s.class.ID),
		zap.Int("class_level", s.ClassLevelAfter()),
		zap.Int("character_level", s.LevelAfter()),
		zap.Int("skills_created", len(m.NewSkills)),
		zap.Int("feats_created", len(m.NewFeats)),
		zap.Int("spells_created", len(m.NewSpells)),
	)
	for _, f := range s.FeaturesGained() {
		e.logger.Debug("class feature gained",
			zap.String("character", s.record.ID),
			zap.String("feature", f.FeatKey),
		)
	}
	out, err := e.store.Read(ctx, s.record.ID)
	if err != nil {
		return nil, fmt.Errorf("levelup: re-reading character %q: %w", s.record.ID, err)
	}
	return out, nil
}
