package dice

import "go.uber.org/zap"

// Roller rolls with a Source and logs every roll at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs it with purpose, e.g. "hit_points".
func (r *Roller) Roll(expr Expression, purpose string) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("purpose", purpose),
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr, purpose string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e, purpose), nil
}

// RollHitDie rolls one hit die of the given size.
//
// Precondition: sides >= 2.
func (r *Roller) RollHitDie(sides int) int {
	return r.Roll(HitDie(sides), "hit_points").Total()
}
