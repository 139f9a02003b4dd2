package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type queries struct {
	db DBTX
}

func newQueries(db DBTX) *queries { return &queries{db: db} }

type userRow struct {
	ID           int64
	Username     string
	Email        string
	Nicename     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, username, email, nicename, display_name, password_hash, created_at, updated_at`

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id int64) (userRow, error) {
	return q.scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	return q.scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return q.scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const createUser = `INSERT INTO users (username, email, nicename, display_name, password_hash)
VALUES (?, ?, ?, ?, ?)`

type createUserParams struct {
	Username     string
	Email        string
	Nicename     string
	DisplayName  string
	PasswordHash string
}

func (q *queries) CreateUser(ctx context.Context, arg createUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.Nicename,
		arg.DisplayName,
		arg.PasswordHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateUserDisplayName = `UPDATE users SET display_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

func (q *queries) UpdateUserDisplayName(ctx context.Context, displayName string, id int64) (int64, error) {
	return q.exec(ctx, updateUserDisplayName, displayName, id)
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, hash string, id int64) (int64, error) {
	return q.exec(ctx, updateUserPasswordHash, hash, id)
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	return q.exec(ctx, deleteUser, id)
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Nicename,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
