package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"ishtopar/core/logger"
)

// Seekers is the repository over the seekers and seeker_languages tables.
type Seekers struct {
	db *sqlx.DB
}

// NewSeekers constructs the seeker repository.
func NewSeekers(db *sqlx.DB) *Seekers {
	return &Seekers{db: db}
}

// Create inserts the seeker and its languages in one transaction.
func (r *Seekers) Create(ctx context.Context, s Seeker) error {
	start := time.Now()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create seeker begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO seekers (telegram_id, phone, email, full_name, gender, region, city, age,
		                     profession, experience, education, about, lang)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		s.TelegramID, s.Phone, s.Email, s.FullName, s.Gender, s.Region, s.City, s.Age,
		s.Profession, s.Experience, s.Education, s.About, s.Lang,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("create seeker: %w", dupOr(err))
	}

	for _, l := range s.Languages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seeker_languages (seeker_id, language, level) VALUES ($1, $2, $3)`,
			id, l.Language, l.Level,
		); err != nil {
			return fmt.Errorf("create seeker language: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create seeker commit: %w", err)
	}

	logger.SVCSeekers.Info("seeker created",
		slog.String("event", "seeker.create"),
		slog.Int64("seeker_id", id),
		slog.Int64("user_id", s.TelegramID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// ByTelegramID loads a seeker with its languages.
func (r *Seekers) ByTelegramID(ctx context.Context, telegramID int64) (Seeker, error) {
	var s Seeker
	err := r.db.GetContext(ctx, &s, `SELECT * FROM seekers WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return Seeker{}, ErrNotFound
	}
	if err != nil {
		return Seeker{}, fmt.Errorf("seeker by telegram id: %w", err)
	}
	if err := r.db.SelectContext(ctx, &s.Languages,
		`SELECT seeker_id, language, level FROM seeker_languages WHERE seeker_id = $1 ORDER BY language`, s.ID,
	); err != nil {
		return Seeker{}, fmt.Errorf("seeker languages: %w", err)
	}
	return s, nil
}

var seekerColumns = map[string]string{
	"phone":      "phone",
	"email":      "email",
	"full_name":  "full_name",
	"gender":     "gender",
	"region":     "region",
	"city":       "city",
	"age":        "age",
	"profession": "profession",
	"experience": "experience",
	"education":  "education",
	"about":      "about",
	"lang":       "lang",
}

// UpdateField writes a single editable column. The column name is
// resolved through an allow-list, never interpolated from user input.
func (r *Seekers) UpdateField(ctx context.Context, telegramID int64, field, value string) error {
	col, ok := seekerColumns[field]
	if !ok {
		return fmt.Errorf("seeker update: unknown field %q", field)
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE seekers SET %s = $1 WHERE telegram_id = $2`, col),
		value, telegramID,
	)
	if err != nil {
		return fmt.Errorf("seeker update %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCSeekers.Debug("seeker field updated",
		slog.String("event", "seeker.update"),
		slog.Int64("user_id", telegramID),
		slog.String("op", field),
	)
	return nil
}

// ReplaceLanguages swaps the full language list of a seeker.
func (r *Seekers) ReplaceLanguages(ctx context.Context, telegramID int64, langs []SeekerLanguage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace languages begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowxContext(ctx, `SELECT id FROM seekers WHERE telegram_id = $1`, telegramID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("replace languages lookup: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM seeker_languages WHERE seeker_id = $1`, id); err != nil {
		return fmt.Errorf("replace languages delete: %w", err)
	}
	for _, l := range langs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seeker_languages (seeker_id, language, level) VALUES ($1, $2, $3)`,
			id, l.Language, l.Level,
		); err != nil {
			return fmt.Errorf("replace languages insert: %w", err)
		}
	}
	return tx.Commit()
}

// Delete removes the seeker account; languages go with it via cascade.
func (r *Seekers) Delete(ctx context.Context, telegramID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seekers WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("delete seeker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCSeekers.Info("seeker deleted",
		slog.String("event", "seeker.delete"),
		slog.Int64("user_id", telegramID),
	)
	return nil
}

// TelegramIDs lists all seeker chat ids for broadcast fan-out.
func (r *Seekers) TelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT telegram_id FROM seekers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("seeker ids: %w", err)
	}
	return ids, nil
}
