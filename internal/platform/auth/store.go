package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"circulation-backend/internal/platform/db"
)

var ErrAccountNotFound = errors.New("account not found")

// Account: 利用者（学生）と図書館員（admin）の共通アカウント
type Account struct {
	ID           string
	PasswordHash string
	Role         string
	IsDisabled   bool
	CreatedAt    time.Time
}

type AccountStore interface {
	// GetByID: 無ければ ErrAccountNotFound
	GetByID(ctx context.Context, id string) (*Account, error)
	// Create: 同じ ID があれば ErrAlreadyExists
	Create(ctx context.Context, a *Account) error
}

type SQLStore struct{ q db.DBTX }

func NewStore(q db.DBTX) *SQLStore { return &SQLStore{q: q} }

func (s *SQLStore) GetByID(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := s.q.QueryRowContext(ctx,
		`SELECT id, password_hash, role, is_disabled, created_at FROM auth_accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.PasswordHash, &a.Role, &a.IsDisabled, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &a, nil
}

func (s *SQLStore) Create(ctx context.Context, a *Account) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO auth_accounts (id, password_hash, role, is_disabled, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.PasswordHash, a.Role, a.IsDisabled, a.CreatedAt)
	if db.IsDuplicateKey(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create account %s: %w", a.ID, err)
	}
	return nil
}
