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

// Employers is the repository over the employers table.
type Employers struct {
	db *sqlx.DB
}

// NewEmployers constructs the employer repository.
func NewEmployers(db *sqlx.DB) *Employers {
	return &Employers{db: db}
}

// Create inserts a new employer account.
func (r *Employers) Create(ctx context.Context, e Employer) error {
	start := time.Now()
	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO employers (telegram_id, phone, email, company_name, region, city, password_hash, lang)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.TelegramID, e.Phone, e.Email, e.CompanyName, e.Region, e.City, e.PasswordHash, e.Lang,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("create employer: %w", dupOr(err))
	}
	logger.SVCEmployers.Info("employer created",
		slog.String("event", "employer.create"),
		slog.Int64("employer_id", id),
		slog.Int64("user_id", e.TelegramID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// ByTelegramID loads an employer by Telegram user id.
func (r *Employers) ByTelegramID(ctx context.Context, telegramID int64) (Employer, error) {
	var e Employer
	err := r.db.GetContext(ctx, &e, `SELECT * FROM employers WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return Employer{}, ErrNotFound
	}
	if err != nil {
		return Employer{}, fmt.Errorf("employer by telegram id: %w", err)
	}
	return e, nil
}

// ByPhone loads an employer by normalized phone, used by password recovery.
func (r *Employers) ByPhone(ctx context.Context, phone string) (Employer, error) {
	var e Employer
	err := r.db.GetContext(ctx, &e, `SELECT * FROM employers WHERE phone = $1`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return Employer{}, ErrNotFound
	}
	if err != nil {
		return Employer{}, fmt.Errorf("employer by phone: %w", err)
	}
	return e, nil
}

var employerColumns = map[string]string{
	"phone":        "phone",
	"email":        "email",
	"company_name": "company_name",
	"region":       "region",
	"city":         "city",
	"lang":         "lang",
}

// UpdateField writes a single editable column through an allow-list.
func (r *Employers) UpdateField(ctx context.Context, telegramID int64, field, value string) error {
	col, ok := employerColumns[field]
	if !ok {
		return fmt.Errorf("employer update: unknown field %q", field)
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE employers SET %s = $1 WHERE telegram_id = $2`, col),
		value, telegramID,
	)
	if err != nil {
		return fmt.Errorf("employer update %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCEmployers.Debug("employer field updated",
		slog.String("event", "employer.update"),
		slog.Int64("user_id", telegramID),
		slog.String("op", field),
	)
	return nil
}

// SetPasswordHash stores a new bcrypt hash for the account owning phone.
func (r *Employers) SetPasswordHash(ctx context.Context, phone, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE employers SET password_hash = $1 WHERE phone = $2`, hash, phone)
	if err != nil {
		return fmt.Errorf("employer set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCEmployers.Info("employer password reset",
		slog.String("event", "employer.password_reset"),
	)
	return nil
}

// Delete removes the employer account and, via cascade, its vacancies.
func (r *Employers) Delete(ctx context.Context, telegramID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employers WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("delete employer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCEmployers.Info("employer deleted",
		slog.String("event", "employer.delete"),
		slog.Int64("user_id", telegramID),
	)
	return nil
}

// TelegramIDs lists all employer chat ids for broadcast fan-out.
func (r *Employers) TelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT telegram_id FROM employers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("employer ids: %w", err)
	}
	return ids, nil
}
