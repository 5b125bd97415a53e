package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/DhruvilJayani/coursecompass/internal/domain"
	"github.com/DhruvilJayani/coursecompass/internal/repository"
)

// Unique constraint names created by the users migration.
const (
	constraintUsersEmail = "users_email_key"
	constraintUsersPhone = "users_phone_no_key"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool DB
}

// New constructs a Repository.
func New(pool DB) *Repository {
	return &Repository{pool: pool}
}

var _ repository.UserRepository = (*Repository)(nil)

const (
	userInsert = `INSERT INTO users (id, name, email, phone_no, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	userSelect = `SELECT id, name, email, phone_no, password_hash, created_at FROM users`
)

// CreateUser inserts a user. Uniqueness of email and phone_no is enforced by
// the table constraints; violations surface as *repository.ConflictError.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, userInsert, user.ID, user.Name, user.Email, user.PhoneNo, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return &repository.ConflictError{Field: conflictField(pgErr)}
		}
		return oops.Code("USER_CREATE_FAILED").
			With("user_id", user.ID).
			Wrapf(err, "insert user")
	}
	return nil
}

// GetUserByEmail fetches a user by exact email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+` WHERE email = $1`, email)
	return scanUser(row, "email")
}

// GetUserByPhone fetches a user by phone number.
func (r *Repository) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+` WHERE phone_no = $1`, phone)
	return scanUser(row, "phone_no")
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id)
	return scanUser(row, "id")
}

func scanUser(row pgx.Row, by string) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNo, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
			// malformed uuid; no row can match
			return nil, repository.ErrNotFound
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("by", by).
			Wrapf(err, "select user")
	}
	return &u, nil
}

func conflictField(pgErr *pgconn.PgError) string {
	switch {
	case pgErr.ConstraintName == constraintUsersPhone || strings.Contains(pgErr.Detail, "(phone_no)"):
		return repository.FieldPhone
	case pgErr.ConstraintName == constraintUsersEmail || strings.Contains(pgErr.Detail, "(email)"):
		return repository.FieldEmail
	default:
		return ""
	}
}
