package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Directory answers cross-collection questions the conversation router
// needs: is a value already taken by anyone, and which role does a
// Telegram user hold.
type Directory struct {
	db *sqlx.DB
}

// NewDirectory constructs the directory.
func NewDirectory(db *sqlx.DB) *Directory {
	return &Directory{db: db}
}

// Normalize lowercases and trims a value for case-insensitive matching.
func Normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// PhoneInUse reports whether the normalized phone exists in either collection.
func (d *Directory) PhoneInUse(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM seekers WHERE phone = $1)
		    OR EXISTS (SELECT 1 FROM employers WHERE phone = $1)`,
		strings.TrimSpace(phone),
	)
	if err != nil {
		return false, fmt.Errorf("phone in use: %w", err)
	}
	return exists, nil
}

// EmailInUse reports whether the email exists in either collection,
// compared case-insensitively.
func (d *Directory) EmailInUse(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM seekers WHERE LOWER(email) = $1)
		    OR EXISTS (SELECT 1 FROM employers WHERE LOWER(email) = $1)`,
		Normalize(email),
	)
	if err != nil {
		return false, fmt.Errorf("email in use: %w", err)
	}
	return exists, nil
}

// DisplayNameInUse reports whether the name collides with a seeker's
// full name or an employer's company name, case-insensitively.
func (d *Directory) DisplayNameInUse(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM seekers WHERE LOWER(full_name) = $1)
		    OR EXISTS (SELECT 1 FROM employers WHERE LOWER(company_name) = $1)`,
		Normalize(name),
	)
	if err != nil {
		return false, fmt.Errorf("display name in use: %w", err)
	}
	return exists, nil
}

// RoleOf resolves the persisted role of a Telegram user: "seeker",
// "employer", or "" when unregistered.
func (d *Directory) RoleOf(ctx context.Context, telegramID int64) (string, error) {
	var role string
	err := d.db.GetContext(ctx, &role, `
		SELECT CASE
			WHEN EXISTS (SELECT 1 FROM seekers WHERE telegram_id = $1) THEN 'seeker'
			WHEN EXISTS (SELECT 1 FROM employers WHERE telegram_id = $1) THEN 'employer'
			ELSE ''
		END`,
		telegramID,
	)
	if err != nil {
		return "", fmt.Errorf("role of: %w", err)
	}
	return role, nil
}

// UserSummary is a flat search hit for the admin user lookup.
type UserSummary struct {
	Kind       string `db:"kind"`
	TelegramID int64  `db:"telegram_id"`
	Name       string `db:"name"`
	Phone      string `db:"phone"`
	Email      string `db:"email"`
}

// Search finds users whose phone, email, or display name contains the
// query, case-insensitively, across both collections.
func (d *Directory) Search(ctx context.Context, query string) ([]UserSummary, error) {
	pattern := "%" + Normalize(query) + "%"
	var out []UserSummary
	err := d.db.SelectContext(ctx, &out, `
		SELECT 'seeker' AS kind, telegram_id, full_name AS name, phone, email
		FROM seekers
		WHERE phone LIKE $1 OR LOWER(email) LIKE $1 OR LOWER(full_name) LIKE $1
		UNION ALL
		SELECT 'employer' AS kind, telegram_id, company_name AS name, phone, email
		FROM employers
		WHERE phone LIKE $1 OR LOWER(email) LIKE $1 OR LOWER(company_name) LIKE $1
		ORDER BY name
		LIMIT 20`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("user search: %w", err)
	}
	return out, nil
}

// LangOf returns the persisted interface language of a registered
// user, or "" for unregistered users.
func (d *Directory) LangOf(ctx context.Context, telegramID int64) (string, error) {
	var lang string
	err := d.db.GetContext(ctx, &lang, `
		SELECT COALESCE(
			(SELECT lang FROM seekers WHERE telegram_id = $1),
			(SELECT lang FROM employers WHERE telegram_id = $1),
			'')`,
		telegramID,
	)
	if err != nil {
		return "", fmt.Errorf("lang of: %w", err)
	}
	return lang, nil
}
