// Package skills computes skill point budgets and applies skill point spends
// during a level-up step.
package skills

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
)

// ErrOverBudget is returned when a spend costs more points than the budget allows.
var ErrOverBudget = errors.New("skill spend over budget")

// SyntheticPrefix marks a pending spend addressed to a catalog skill the
// character does not own yet.
const SyntheticPrefix = "key:"

// SyntheticKey returns the pending-spend key for a catalog skill not yet on the character.
func SyntheticKey(skillKey string) string {
	return SyntheticPrefix + strings.TrimSpace(skillKey)
}

// Budget returns the skill points gained for a level in class.
//
// Postcondition: Returns max(1, class.SkillPointsPerLevel+intMod), times 4 when
// firstCharacterLevel is true.
func Budget(class *ruleset.Class, intMod int, firstCharacterLevel bool) int {
	points := class.SkillPointsPerLevel + intMod
	if points < 1 {
		points = 1
	}
	if firstCharacterLevel {
		points *= 4
	}
	return points
}

// Classification is the standing of a skill for one level-up.
type Classification struct {
	IsClassSkill bool
	IsForbidden  bool
}

// Classify classifies skill against normalized key sets (see ruleset.KeySet).
// A skill is a class skill when its key is a class skill or granted. It is
// forbidden when excluded, or when it is exclusive and neither granted nor a
// class skill.
func Classify(skill *ruleset.Skill, classSkillKeys, grantedSkillKeys, excludedSkillKeys map[string]bool) Classification {
	key := ruleset.NormalizeKey(skill.Key)
	isClass := classSkillKeys[key] || grantedSkillKeys[key]
	forbidden := excludedSkillKeys[key] || (skill.Exclusive && !isClass)
	return Classification{IsClassSkill: isClass, IsForbidden: forbidden}
}

// CostPerRank returns the skill points one rank costs.
func CostPerRank(isClassSkill bool) int {
	if isClassSkill {
		return 1
	}
	return 2
}

// MaxRanksAfterLevel returns the rank cap at a total character level.
//
// Postcondition: class skills cap at level+3, cross-class skills at floor((level+3)/2).
func MaxRanksAfterLevel(isClassSkill bool, totalLevelAfter int) int {
	if isClassSkill {
		return totalLevelAfter + 3
	}
	return (totalLevelAfter + 3) / 2
}

// SkillLookup resolves catalog skills by key.
type SkillLookup interface {
	Skill(key string) (*ruleset.Skill, bool)
	SkillsByKey() map[string]*ruleset.Skill
}

// Line is one skill addressable by a spend.
type Line struct {
	Classification

	// ID is the skill instance ID, or a SyntheticKey for catalog skills not yet owned.
	ID           string
	Key          string
	Name         string
	Synthetic    bool
	CurrentRanks float64
	Cost         int
	Cap          int
}

// LineResult is the outcome of a spend on one line.
type LineResult struct {
	Line

	Points         int
	AddRanks       float64
	PointsSpent    int
	ResultingRanks float64
}

// SpendResult is the outcome of Apply.
type SpendResult struct {
	Budget      int
	PointsSpent int
	Remaining   int
	Valid       bool
	Lines       []LineResult

	// Ignored lists pending keys that matched no skill.
	Ignored []string
}

// Allocator applies skill spends for one level in one class.
type Allocator struct {
	levelAfter int
	budget     int
	lines      []Line
	byID       map[string]int
	byKey      map[string]int
}

// NewAllocator prepares a spend for the next level of r in class.
//
// Class skills for the step are the class's own list plus the character's
// granted skills. The budget uses the character's effective intelligence.
//
// Precondition: r, class and skills must be non-nil.
func NewAllocator(r *character.Record, class *ruleset.Class, skills SkillLookup) *Allocator {
	classKeys := ruleset.KeySet(class.ClassSkillKeys())
	granted := ruleset.KeySet(r.GrantedSkillKeys)
	excluded := ruleset.KeySet(r.ExcludedSkillKeys)
	a := &Allocator{
		levelAfter: r.Level() + 1,
		budget:     Budget(class, r.AbilityMod(character.Int), r.Level() == 0),
		byID:       make(map[string]int),
		byKey:      make(map[string]int),
	}
	add := func(l Line, def *ruleset.Skill) {
		l.Classification = Classify(def, classKeys, granted, excluded)
		l.Cost = CostPerRank(l.IsClassSkill)
		l.Cap = MaxRanksAfterLevel(l.IsClassSkill, a.levelAfter)
		a.byID[l.ID] = len(a.lines)
		a.byKey[ruleset.NormalizeKey(l.Key)] = len(a.lines)
		a.lines = append(a.lines, l)
	}
	for _, s := range r.Skills {
		def, ok := skills.Skill(s.Key)
		if !ok {
			def = &ruleset.Skill{Key: s.Key, Name: s.Name}
		}
		add(Line{ID: s.ID, Key: s.Key, Name: s.Name, CurrentRanks: s.Ranks}, def)
	}
	for key, def := range skills.SkillsByKey() {
		if _, owned := a.byKey[key]; owned {
			continue
		}
		add(Line{ID: SyntheticKey(def.Key), Key: def.Key, Name: def.Name, Synthetic: true}, def)
	}
	ruleset.SortByName(a.lines, func(l Line) string { return l.Name })
	for i, l := range a.lines {
		a.byID[l.ID] = i
		a.byKey[ruleset.NormalizeKey(l.Key)] = i
	}
	return a
}

// Budget returns the points available for this step.
func (a *Allocator) Budget() int {
	return a.budget
}

// LevelAfter returns the character level the caps are computed for.
func (a *Allocator) LevelAfter() int {
	return a.levelAfter
}

// Lines returns every addressable skill sorted by name.
func (a *Allocator) Lines() []Line {
	return append([]Line(nil), a.lines...)
}

func (a *Allocator) find(id string) (int, bool) {
	if i, ok := a.byID[id]; ok {
		return i, true
	}
	if strings.HasPrefix(id, SyntheticPrefix) {
		i, ok := a.byKey[ruleset.NormalizeKey(strings.TrimPrefix(id, SyntheticPrefix))]
		return i, ok
	}
	return 0, false
}

// Apply computes the effect of spending pending points per skill. Keys are skill
// instance IDs or synthetic keys. Apply never fails; callers check Valid.
//
// Per skill: addRanks = min(points/cost, cap-current), never below 0; negative
// points count as 0 and forbidden skills always add nothing. A half rank short
// of the cap is filled and costs a whole point.
//
// Postcondition: Remaining == Budget-PointsSpent and Valid == (Remaining >= 0).
func (a *Allocator) Apply(pending map[string]int) SpendResult {
	points := make(map[int]int)
	res := SpendResult{Budget: a.budget}
	for id, p := range pending {
		i, ok := a.find(id)
		if !ok {
			res.Ignored = append(res.Ignored, id)
			continue
		}
		if p > 0 {
			points[i] += p
		}
	}
	for i, l := range a.lines {
		lr := LineResult{Line: l, Points: points[i], ResultingRanks: l.CurrentRanks}
		if !l.IsForbidden && lr.Points > 0 {
			maxAdd := math.Max(0, float64(l.Cap)-l.CurrentRanks)
			lr.AddRanks = math.Min(float64(lr.Points/l.Cost), maxAdd)
			lr.PointsSpent = int(math.Ceil(lr.AddRanks * float64(l.Cost)))
			lr.ResultingRanks = l.CurrentRanks + lr.AddRanks
		}
		res.PointsSpent += lr.PointsSpent
		res.Lines = append(res.Lines, lr)
	}
	res.Remaining = res.Budget - res.PointsSpent
	res.Valid = res.Remaining >= 0
	sort.Strings(res.Ignored)
	return res
}

// Changed returns the lines that add at least one rank.
func (r SpendResult) Changed() []LineResult {
	var out []LineResult
	for _, l := range r.Lines {
		if l.AddRanks > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Plan is the record change a valid spend commits.
type Plan struct {
	NewSkills []character.SkillInstance
	Updates   []character.SkillRankUpdate

	// Added maps skill instance ID to the ranks added.
	Added map[string]float64
}

// Plan converts a spend into record changes. Synthetic lines become new skill
// instances with IDs from newID; owned skills get their new absolute ranks.
//
// Postcondition: Returns an error wrapping ErrOverBudget when r is not valid.
func (r SpendResult) Plan(newID character.IDFunc) (Plan, error) {
	if !r.Valid {
		return Plan{}, fmt.Errorf("%w: %d points spent of %d", ErrOverBudget, r.PointsSpent, r.Budget)
	}
	p := Plan{Added: make(map[string]float64)}
	for _, l := range r.Changed() {
		ranks := math.Min(l.ResultingRanks, float64(l.Cap))
		if l.Synthetic {
			id := newID()
			p.NewSkills = append(p.NewSkills, character.SkillInstance{ID: id, Key: l.Key, Name: l.Name, Ranks: ranks})
			p.Added[id] = ranks
			continue
		}
		p.Updates = append(p.Updates, character.SkillRankUpdate{SkillID: l.ID, Ranks: ranks})
		p.Added[l.ID] = ranks - l.CurrentRanks
	}
	return p, nil
}

// Mutations returns the plan as a standalone batch.
func (p Plan) Mutations() character.Mutations {
	return character.Mutations{NewSkills: p.NewSkills, SkillRanks: p.Updates}
}
