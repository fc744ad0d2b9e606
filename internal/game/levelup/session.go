package levelup

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/skills"
)

// Step is a level-up state.
type Step int

const (
	StepChooseClass Step = iota
	StepHitPoints
	StepSkills
	StepFeat
	StepReview
	StepCommitted
	StepCancelled
)

func (s Step) String() string {
	switch s {
	case StepChooseClass:
		return "choose_class"
	case StepHitPoints:
		return "hit_points"
	case StepSkills:
		return "skills"
	case StepFeat:
		return "feat"
	case StepReview:
		return "review"
	case StepCommitted:
		return "committed"
	case StepCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ClassOption is a class the character may level in.
type ClassOption struct {
	ClassID      string
	Name         string
	HitDie       int
	CurrentLevel int
	Existing     bool
}

// Session is one level-up in progress. Nothing is written until Commit.
//
// A Session is not safe for concurrent use.
type Session struct {
	engine *Engine
	record *character.Record
	step   Step

	class    *ruleset.Class
	newClass bool
	domains  []character.DomainAssignment

	hp *int

	allocator *skills.Allocator
	pending   map[string]int
	spend     skills.SpendResult

	feat         *ruleset.Feat
	featDecision bool
}

func newSession(e *Engine, r *character.Record) *Session {
	return &Session{engine: e, record: r, step: StepChooseClass}
}

// Step returns the current state.
func (s *Session) Step() Step {
	return s.step
}

// Record returns the character as read at Begin.
func (s *Session) Record() *character.Record {
	return s.record.Clone()
}

func (s *Session) require(step Step) error {
	if s.step != step {
		return fmt.Errorf("%w: in %s, need %s", ErrInvalidTransition, s.step, step)
	}
	return nil
}

// ClassOptions lists the character's classes, then catalog classes it does not have.
func (s *Session) ClassOptions() []ClassOption {
	var out []ClassOption
	for _, inst := range s.record.Classes {
		opt := ClassOption{ClassID: inst.ClassID, Name: inst.Name, CurrentLevel: s.record.ClassLevel(inst.ClassID), Existing: true}
		if c, ok := s.engine.catalog.Class(inst.ClassID); ok {
			opt.Name, opt.HitDie = c.Name, c.HitDie
		}
		out = append(out, opt)
	}
	for _, c := range s.engine.catalog.ClassSummaries() {
		if s.record.HasClass(c.ID) {
			continue
		}
		out = append(out, ClassOption{ClassID: c.ID, Name: c.Name, HitDie: c.HitDie})
	}
	return out
}

// ChooseClass selects the class to level. A class the character lacks is taken
// up new; domainKeys are assigned when the new class supports domains.
func (s *Session) ChooseClass(classID string, domainKeys ...string) (Validation, error) {
	if err := s.require(StepChooseClass); err != nil {
		return Validation{}, err
	}
	if classID == "" {
		return invalid("choose a class"), nil
	}
	class, ok := s.engine.catalog.Class(classID)
	if !ok {
		return invalid(fmt.Sprintf("unknown class %s", classID)), nil
	}
	isNew := !s.record.HasClass(classID)

	var domains []character.DomainAssignment
	if len(domainKeys) > 0 {
		if !isNew || !class.IsCaster() || !class.Spellcasting.SupportsDomains {
			return invalid(fmt.Sprintf("%s cannot choose domains now", class.Name)), nil
		}
		for _, key := range domainKeys {
			d, ok := s.engine.catalog.Domain(key)
			if !ok {
				return invalid(fmt.Sprintf("unknown domain %s", key)), nil
			}
			domains = append(domains, character.DomainAssignment{DomainKey: d.Key, DomainName: d.Name})
		}
	}

	if s.class != nil && s.class.ID != class.ID {
		s.resetAfterClass()
	}
	s.class, s.newClass, s.domains = class, isNew, domains
	return OK, nil
}

// Class returns the chosen class, or nil.
func (s *Session) Class() *ruleset.Class {
	return s.class
}

// IsNewClass reports whether the chosen class is new to the character.
func (s *Session) IsNewClass() bool {
	return s.newClass
}

// ClassLevelAfter returns the chosen class's level after this level-up.
//
// Precondition: a class must be chosen.
func (s *Session) ClassLevelAfter() int {
	return s.record.ClassLevel(s.class.ID) + 1
}

// LevelAfter returns the character level after this level-up.
func (s *Session) LevelAfter() int {
	return s.record.Level() + 1
}

// FeaturesGained returns the class features reached by this level-up.
func (s *Session) FeaturesGained() []ruleset.ClassFeature {
	if s.class == nil {
		return nil
	}
	return s.class.FeaturesAt(s.ClassLevelAfter())
}

// EnterHP sets the hit points rolled for the new level.
//
// Postcondition: Returns ErrNegativeHP for hp < 0 and keeps any earlier value.
func (s *Session) EnterHP(hp int) error {
	if err := s.require(StepHitPoints); err != nil {
		return err
	}
	if hp < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeHP, hp)
	}
	s.hp = &hp
	return nil
}

// RollHP rolls the class hit die and keeps the result.
func (s *Session) RollHP() (int, error) {
	if err := s.require(StepHitPoints); err != nil {
		return 0, err
	}
	hp := s.engine.roller.RollHitDie(s.class.HitDie)
	s.hp = &hp
	return hp, nil
}

// HP returns the pending hit points.
func (s *Session) HP() (int, bool) {
	if s.hp == nil {
		return 0, false
	}
	return *s.hp, true
}

// Budget returns the skill points of this level-up.
func (s *Session) Budget() int {
	if s.allocator == nil {
		return 0
	}
	return s.allocator.Budget()
}

// SkillLines returns every skill the spend may address.
func (s *Session) SkillLines() []skills.Line {
	if s.allocator == nil {
		return nil
	}
	return s.allocator.Lines()
}

// SetSkillPoints replaces the pending spend and returns its evaluation.
func (s *Session) SetSkillPoints(points map[string]int) (skills.SpendResult, error) {
	if err := s.require(StepSkills); err != nil {
		return skills.SpendResult{}, err
	}
	s.pending = make(map[string]int, len(points))
	for k, v := range points {
		s.pending[k] = v
	}
	s.spend = s.allocator.Apply(s.pending)
	return s.spend, nil
}

// Spend returns the evaluation of the pending spend.
func (s *Session) Spend() skills.SpendResult {
	return s.spend
}

// GainsFeat reports whether this level-up grants a feat choice.
//
// Precondition: a class must be chosen.
func (s *Session) GainsFeat() bool {
	p := s.engine.policy
	return p.FeatLevels.GainsFeat(s.LevelAfter(), p.IsFighter(s.class), s.ClassLevelAfter())
}

// EligibleFeats lists the feats the character may pick now.
func (s *Session) EligibleFeats(ctx context.Context) []*ruleset.Feat {
	return s.engine.feats.Eligible(ctx, s.record)
}

// SelectFeat picks featID as the feat for this level.
func (s *Session) SelectFeat(ctx context.Context, featID string) (Validation, error) {
	if err := s.require(StepFeat); err != nil {
		return Validation{}, err
	}
	f, ok := s.engine.catalog.Feat(featID)
	if !ok {
		return invalid(fmt.Sprintf("unknown feat %s", featID)), nil
	}
	if s.record.OwnsFeat(f.ID) && !f.Repeatable {
		return invalid(fmt.Sprintf("already has %s", f.Name)), nil
	}
	if res := s.engine.feats.MeetsPrerequisites(ctx, s.record, f); !res.Met {
		return invalid(fmt.Sprintf("%s: %s", f.Name, strings.Join(res.Reasons, "; "))), nil
	}
	s.feat, s.featDecision = f, true
	return OK, nil
}

// DeclineFeat records that no feat is taken this level.
func (s *Session) DeclineFeat() error {
	if err := s.require(StepFeat); err != nil {
		return err
	}
	s.feat, s.featDecision = nil, true
	return nil
}

// Feat returns the selected feat, or nil.
func (s *Session) Feat() *ruleset.Feat {
	return s.feat
}

// Next validates the current step and advances. Blocking conditions come back
// as an invalid Validation and leave the step unchanged.
func (s *Session) Next() (Validation, error) {
	switch s.step {
	case StepChooseClass:
		if s.class == nil {
			return invalid("choose a class"), nil
		}
		s.step = StepHitPoints
		if s.record.Level() == 0 && s.engine.policy.FullHPAtFirstLevel && s.hp == nil {
			hp := s.class.HitDie
			s.hp = &hp
		}
	case StepHitPoints:
		if s.hp == nil {
			return invalid("roll or enter hit points"), nil
		}
		s.step = StepSkills
		if s.allocator == nil {
			s.allocator = skills.NewAllocator(s.record, s.class, s.engine.catalog)
			s.spend = s.allocator.Apply(nil)
		}
	case StepSkills:
		if !s.spend.Valid {
			return invalid(fmt.Sprintf("%d skill points spent of %d", s.spend.PointsSpent, s.spend.Budget)), nil
		}
		if s.GainsFeat() {
			s.step = StepFeat
		} else {
			s.step = StepReview
		}
	case StepFeat:
		if !s.featDecision {
			return invalid("select a feat or decline"), nil
		}
		s.step = StepReview
	default:
		return Validation{}, fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, s.step)
	}
	return OK, nil
}

// Back returns to the previous step. Leaving the feat step clears the feat
// choice; other pending values are kept until the class choice changes.
func (s *Session) Back() error {
	switch s.step {
	case StepHitPoints:
		s.step = StepChooseClass
	case StepSkills:
		s.step = StepHitPoints
	case StepFeat:
		s.feat, s.featDecision = nil, false
		s.step = StepSkills
	case StepReview:
		if s.GainsFeat() {
			s.step = StepFeat
		} else {
			s.step = StepSkills
		}
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, s.step)
	}
	return nil
}

// Cancel discards all pending state. Nothing is written.
func (s *Session) Cancel() error {
	if s.step == StepCommitted || s.step == StepCancelled {
		return fmt.Errorf("%w: session already %s", ErrInvalidTransition, s.step)
	}
	s.class, s.newClass, s.domains = nil, false, nil
	s.resetAfterClass()
	s.step = StepCancelled
	return nil
}

// resetAfterClass drops every pending value that depends on the class choice.
func (s *Session) resetAfterClass() {
	s.hp = nil
	s.allocator, s.pending, s.spend = nil, nil, skills.SpendResult{}
	s.feat, s.featDecision = nil, false
}
