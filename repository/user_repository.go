package repository

import (
	"database/sql"
	"go-auth-api/model"

	"github.com/lib/pq"
)

// IUserRepository is the credential store consumed by the auth core. The core
// never mutates a user except for the password hash.
type IUserRepository interface {
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id string) (*model.User, error)
	UpdatePassword(userID string, newHash string) error
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, roles, permissions, created_at FROM users WHERE email=$1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		pq.Array(&user.Roles), pq.Array(&user.Permissions), &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, roles, permissions, created_at FROM users WHERE id=$1`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		pq.Array(&user.Roles), pq.Array(&user.Permissions), &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpdatePassword(userID string, newHash string) error {
	query := `UPDATE users SET password=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, newHash, userID)
	return err
}
