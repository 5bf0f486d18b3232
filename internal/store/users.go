package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
	"github.com/tuanphung2005/fluxify-sub001/internal/models"
)

// GetUserByEmail retrieves a user by email, nil when absent.
func (s *Store) GetUserByEmail(ctx context.Context, ext sqlx.ExtContext, email string) (*models.User, error) {
	if ext == nil {
		ext = s.db
	}
	var user models.User
	err := sqlx.GetContext(ctx, ext, &user, "SELECT * FROM users WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", apperr.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUserByEmail looks up a user by email, creating a record if none
// exists. The ON CONFLICT no-op update lets RETURNING yield the existing
// row, so concurrent guest checkouts for the same email converge on one
// account.
func (s *Store) UpsertUserByEmail(ctx context.Context, tx *sqlx.Tx, email, passwordHash string, isGuest bool) (*models.User, error) {
	var user models.User
	query := `
		INSERT INTO users (email, password_hash, is_guest)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING *`

	if err := tx.GetContext(ctx, &user, query, email, passwordHash, isGuest); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

// CreateAddress persists a shipping address inside the given transaction.
// Addresses are written fresh per order; nothing deduplicates them.
func (s *Store) CreateAddress(ctx context.Context, tx *sqlx.Tx, addr *models.Address) error {
	query := `
		INSERT INTO addresses (user_id, recipient, line1, line2, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return tx.GetContext(ctx, &addr.ID, query,
		addr.UserID, addr.Recipient, addr.Line1, addr.Line2,
		addr.City, addr.PostalCode, addr.Country)
}
