package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/store"
)

// UserStore implements store.UserStore against PostgreSQL. It is the only
// component that touches the hashed_password column.
type UserStore struct {
	db *sql.DB
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a credential-aware user store.
func NewUserStore(db *sql.DB) *UserStore {
	// ALLOW-PANIC: Constructor enforcing required dependency
	if db == nil {
		panic("db cannot be nil")
	}
	return &UserStore{db: db}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	const insertSQL = `INSERT INTO users (id, name, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, insertSQL,
		user.ID, user.Name, user.Email, user.HashedPassword, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return mapError("create user", err)
	}
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const getSQL = `SELECT id, name, email, hashed_password, created_at, updated_at
		FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, getSQL, id))
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const getSQL = `SELECT id, name, email, hashed_password, created_at, updated_at
		FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, getSQL, email))
}

func (s *UserStore) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user   domain.User
		hashed sql.NullString
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &hashed, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, mapError("get user", err)
	}
	user.HashedPassword = hashed.String
	return &user, nil
}
