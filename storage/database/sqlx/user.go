package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/user"
)

const uniqueViolation = "23505"

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func boilUser(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
	if !usr.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(usr.LastLogin)
	}
	return row
}

func unboilUser(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Email:        row.Email,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DBExecutor) user.Repository {
	return &userRepository{db: db}
}

const userColumns = `id, email, is_active, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :is_active, :password_hash, :created_at, :updated_at, :last_login)
		RETURNING ` + userColumns
	stmt, args, err := bindNamed(repo.db, q, boilUser(usr))
	if err != nil {
		return user.User{}, err
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return unboilUser(row), nil
}

func (repo *userRepository) getOne(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return unboilUser(row), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getOne(ctx, "id", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, "email", email)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	q := `UPDATE users SET
			email = :email,
			is_active = :is_active,
			password_hash = COALESCE(:password_hash, password_hash),
			updated_at = :updated_at,
			last_login = :last_login
		WHERE id = :id
		RETURNING ` + userColumns
	stmt, args, err := bindNamed(repo.db, q, boilUser(usr))
	if err != nil {
		return user.User{}, err
	}
	if err = repo.db.GetContext(ctx, &row, stmt, args...); err != nil {
		switch {
		case errors.Cause(err) == sql.ErrNoRows:
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return unboilUser(row), nil
}
