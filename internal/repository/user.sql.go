package repository

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password, first_name, last_name, phone, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.Password,
		&i.FirstName,
		&i.LastName,
		&i.Phone,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertUser = `-- name: InsertUser :one
INSERT INTO users (username, email, password, first_name, last_name, phone)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

type InsertUserParams struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, insertUser,
		arg.Username,
		arg.Email,
		arg.Password,
		arg.FirstName,
		arg.LastName,
		arg.Phone,
	)
	return scanUser(row)
}

const findUserByEmail = `-- name: FindUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, findUserByEmail, email)
	return scanUser(row)
}

const findUserById = `-- name: FindUserById :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) FindUserById(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, findUserById, id)
	return scanUser(row)
}
