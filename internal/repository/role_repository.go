package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/project-archive/internal/model"
)

// RoleRepo reads and creates rows of the `roles` table.
type RoleRepo struct {
	db *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// List returns every role ordered by id.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	const q = `SELECT role_id, role_name FROM roles ORDER BY role_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storeErr("list roles", err)
	}
	defer rows.Close()

	out := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, storeErr("list roles", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list roles", err)
	}
	return out, nil
}

// Create inserts a role.  A blank name is a ValidationError.
func (r *RoleRepo) Create(ctx context.Context, name string) (model.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Role{}, invalid("Role name is required")
	}
	const q = `INSERT INTO roles (role_name) VALUES ($1) RETURNING role_id, role_name`
	var role model.Role
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&role.ID, &role.Name); err != nil {
		return model.Role{}, storeErr("create role", err)
	}
	return role, nil
}

// Exists reports whether a role with the id exists.
func (r *RoleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, "role exists", `SELECT EXISTS (SELECT 1 FROM roles WHERE role_id = $1)`, id)
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryRower, op, stmt string, args ...any) (bool, error) {
	var ok bool
	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&ok); err != nil {
		return false, storeErr(op, err)
	}
	return ok, nil
}
