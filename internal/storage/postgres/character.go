package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
// It matches character.ErrNotFound under errors.Is.
var ErrCharacterNotFound = fmt.Errorf("postgres: %w", character.ErrNotFound)

// ErrCharacterExists is returned when creating a character whose ID is taken.
var ErrCharacterExists = errors.New("postgres: character already exists")

// CharacterRepository persists character records as JSONB, one row per
// character, with a per-level index table kept in the same transaction.
// It implements character.Store.
type CharacterRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool; logger must be non-nil.
func NewCharacterRepository(db *pgxpool.Pool, logger *zap.Logger) *CharacterRepository {
	return &CharacterRepository{db: db, logger: logger}
}

// Create inserts a new character record.
//
// Precondition: rec.ID and rec.Name must be non-empty.
// Postcondition: Returns ErrCharacterExists when the ID is already stored.
func (r *CharacterRepository) Create(ctx context.Context, rec *character.Record) error {
	if rec == nil || rec.ID == "" || rec.Name == "" {
		return fmt.Errorf("%w: record requires an id and a name", character.ErrInvalidMutation)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO characters (id, name, level, record)
			VALUES ($1, $2, $3, $4)`,
			rec.ID, rec.Name, rec.Level(), rec,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return ErrCharacterExists
			}
			return fmt.Errorf("inserting character: %w", err)
		}
		return syncLevels(ctx, tx, rec.ID, nil, rec)
	})
}

// Read retrieves a character record by ID.
//
// Postcondition: Returns the record or ErrCharacterNotFound.
func (r *CharacterRepository) Read(ctx context.Context, id string) (*character.Record, error) {
	return readRecord(ctx, r.db, id, "")
}

// ApplyMutations applies m to the stored record in one transaction. The row is
// locked for the duration so concurrent batches serialize.
//
// Postcondition: Either the whole batch is stored or nothing changes.
func (r *CharacterRepository) ApplyMutations(ctx context.Context, id string, m character.Mutations) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := readRecord(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}
		next, err := m.ApplyTo(current)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE characters
			SET name = $2, level = $3, record = $4, version = version + 1, updated_at = NOW()
			WHERE id = $1`,
			id, next.Name, next.Level(), next,
		)
		if err != nil {
			return fmt.Errorf("updating character: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrCharacterNotFound
		}
		return syncLevels(ctx, tx, id, current, next)
	})
	if err != nil {
		return err
	}
	r.logger.Debug("character mutations stored", zap.String("character", id))
	return nil
}

// Delete removes a character and its level rows.
//
// Postcondition: Returns ErrCharacterNotFound when no row was deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// ClassLevels returns the stored level count per class for a character.
func (r *CharacterRepository) ClassLevels(ctx context.Context, id string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT class_id, COUNT(*) FROM character_levels
		WHERE character_id = $1 GROUP BY class_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying class levels: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var classID string
		var n int
		if err := rows.Scan(&classID, &n); err != nil {
			return nil, fmt.Errorf("scanning class level row: %w", err)
		}
		out[classID] = n
	}
	return out, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func readRecord(ctx context.Context, q querier, id, lock string) (*character.Record, error) {
	var rec character.Record
	err := q.QueryRow(ctx, `SELECT record FROM characters WHERE id = $1 `+lock, id).Scan(&rec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	if rec.DomainsByClass == nil {
		rec.DomainsByClass = make(map[string][]character.DomainAssignment)
	}
	if rec.SpellShortlistByClass == nil {
		rec.SpellShortlistByClass = make(map[string][]string)
	}
	return &rec, nil
}

// syncLevels brings character_levels in line with next. prev is the stored
// record before the change, nil on create.
func syncLevels(ctx context.Context, tx pgx.Tx, id string, prev, next *character.Record) error {
	keep := 0
	if prev != nil {
		keep = commonPrefix(prev.LevelHistory, next.LevelHistory)
	}
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM character_levels WHERE character_id = $1 AND level > $2`, id, keep)
	for i := keep; i < len(next.LevelHistory); i++ {
		e := next.LevelHistory[i]
		batch.Queue(`
			INSERT INTO character_levels (character_id, level, class_id, hp_rolled)
			VALUES ($1, $2, $3, $4)`,
			id, i+1, e.ClassID, e.HPRolled,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("syncing character levels: %w", err)
	}
	return nil
}

func commonPrefix(a, b []character.LevelEntry) int {
	n := 0
	for n < len(a) && n < len(b) && a[n].ClassID == b[n].ClassID && a[n].HPRolled == b[n].HPRolled {
		n++
	}
	return n
}

func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
