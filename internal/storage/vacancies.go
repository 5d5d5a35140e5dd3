package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"ishtopar/core/logger"
)

// Vacancies is the repository over the vacancies table.
type Vacancies struct {
	db *sqlx.DB
}

// NewVacancies constructs the vacancy repository.
func NewVacancies(db *sqlx.DB) *Vacancies {
	return &Vacancies{db: db}
}

// Create inserts a vacancy and returns its id.
func (r *Vacancies) Create(ctx context.Context, v Vacancy) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO vacancies (employer_id, title, description, salary, region, contact, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id`,
		v.EmployerID, v.Title, v.Description, v.Salary, v.Region, v.Contact,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create vacancy: %w", err)
	}
	logger.SVCVacancies.Info("vacancy created",
		slog.String("event", "vacancy.create"),
		slog.Int64("vacancy_id", id),
		slog.Int64("employer_id", v.EmployerID),
	)
	return id, nil
}

// Update rewrites all editable fields of an existing vacancy. The
// employer id guards against editing somebody else's posting.
func (r *Vacancies) Update(ctx context.Context, v Vacancy) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vacancies
		SET title = $1, description = $2, salary = $3, region = $4, contact = $5, updated_at = NOW()
		WHERE id = $6 AND employer_id = $7`,
		v.Title, v.Description, v.Salary, v.Region, v.Contact, v.ID, v.EmployerID,
	)
	if err != nil {
		return fmt.Errorf("update vacancy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCVacancies.Info("vacancy updated",
		slog.String("event", "vacancy.update"),
		slog.Int64("vacancy_id", v.ID),
	)
	return nil
}

// ByID loads one vacancy.
func (r *Vacancies) ByID(ctx context.Context, id int64) (Vacancy, error) {
	var v Vacancy
	err := r.db.GetContext(ctx, &v, `SELECT * FROM vacancies WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Vacancy{}, ErrNotFound
	}
	if err != nil {
		return Vacancy{}, fmt.Errorf("vacancy by id: %w", err)
	}
	return v, nil
}

// ByEmployer lists the employer's vacancies, newest first.
func (r *Vacancies) ByEmployer(ctx context.Context, employerID int64) ([]Vacancy, error) {
	var out []Vacancy
	if err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM vacancies WHERE employer_id = $1 ORDER BY created_at DESC`, employerID,
	); err != nil {
		return nil, fmt.Errorf("vacancies by employer: %w", err)
	}
	return out, nil
}

// Delete removes a vacancy owned by the given employer.
func (r *Vacancies) Delete(ctx context.Context, id, employerID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM vacancies WHERE id = $1 AND employer_id = $2`, id, employerID)
	if err != nil {
		return fmt.Errorf("delete vacancy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.SVCVacancies.Info("vacancy deleted",
		slog.String("event", "vacancy.delete"),
		slog.Int64("vacancy_id", id),
	)
	return nil
}
