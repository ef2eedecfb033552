package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/project-archive/internal/model"
)

const typeColumns = `t.type_id, t.user_id, t.type_name, t.created_at, t.updated_at, t.deleted_at`

func scanType(s rowScanner, extra ...any) (model.ProjectType, error) {
	var t model.ProjectType
	dest := append([]any{&t.ID, &t.UserID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt}, extra...)
	err := s.Scan(dest...)
	return t, err
}

// ProjectTypeRepo reads and writes `type_projects`.  Type names are unique
// among active types only; a soft-deleted type frees its name.
type ProjectTypeRepo struct {
	db    *sql.DB
	users *UserRepo
}

func NewProjectTypeRepo(db *sql.DB) *ProjectTypeRepo {
	return &ProjectTypeRepo{db: db, users: NewUserRepo(db)}
}

// List returns types with the number of their non-deleted projects.
// Soft-deleted types are left out unless includeDeleted is set.
func (r *ProjectTypeRepo) List(ctx context.Context, includeDeleted bool) ([]model.ProjectType, error) {
	where := "t.deleted_at IS NULL"
	if includeDeleted {
		where = "TRUE"
	}
	q := `SELECT ` + typeColumns + `, COUNT(p.project_id) AS project_count
		FROM type_projects t
		LEFT JOIN projects p ON p.type_id = t.type_id AND p.deleted_at IS NULL
		WHERE ` + where + `
		GROUP BY t.type_id
		ORDER BY t.type_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storeErr("list types", err)
	}
	defer rows.Close()

	out := []model.ProjectType{}
	for rows.Next() {
		var count int64
		t, err := scanType(rows, &count)
		if err != nil {
			return nil, storeErr("list types", err)
		}
		t.ProjectCount = &count
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list types", err)
	}
	return out, nil
}

// Create inserts a type owned by userID.
func (r *ProjectTypeRepo) Create(ctx context.Context, userID int64, name string) (model.ProjectType, error) {
	name = strings.TrimSpace(name)
	if userID <= 0 || name == "" {
		return model.ProjectType{}, invalid("user_id and type_name are required")
	}

	ok, err := r.users.ExistsActive(ctx, userID)
	if err != nil {
		return model.ProjectType{}, err
	}
	if !ok {
		return model.ProjectType{}, fmt.Errorf("%w: user %d does not exist", ErrInvalidReference, userID)
	}

	taken, err := exists(ctx, r.db, "check type name",
		`SELECT EXISTS (SELECT 1 FROM type_projects WHERE type_name = $1 AND deleted_at IS NULL)`, name)
	if err != nil {
		return model.ProjectType{}, err
	}
	if taken {
		return model.ProjectType{}, ErrDuplicateTypeName
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO type_projects AS t (user_id, type_name) VALUES ($1, $2) RETURNING `+typeColumns,
		userID, name)
	t, err := scanType(row)
	if err != nil {
		return model.ProjectType{}, r.writeErr("create type", err)
	}
	return t, nil
}

// Update renames an active type.
func (r *ProjectTypeRepo) Update(ctx context.Context, id int64, name string) (model.ProjectType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ProjectType{}, invalid("Missing required field: type_name")
	}
	row := r.db.QueryRowContext(ctx,
		`UPDATE type_projects AS t SET type_name = $1, updated_at = NOW()
		 WHERE t.type_id = $2 AND t.deleted_at IS NULL RETURNING `+typeColumns,
		name, id)
	t, err := scanType(row)
	if err != nil {
		return model.ProjectType{}, r.writeErr("update type", err)
	}
	return t, nil
}

// SoftDelete stamps deleted_at on an active type.  A missing or already
// deleted type is ErrNotFound.  Projects filed under it keep their type_id.
func (r *ProjectTypeRepo) SoftDelete(ctx context.Context, id int64) (model.ProjectType, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE type_projects AS t SET deleted_at = NOW()
		 WHERE t.type_id = $1 AND t.deleted_at IS NULL RETURNING `+typeColumns, id)
	t, err := scanType(row)
	if err != nil {
		return model.ProjectType{}, r.writeErr("delete type", err)
	}
	return t, nil
}

// ExistsActive reports whether a non-deleted type has the id.
func (r *ProjectTypeRepo) ExistsActive(ctx context.Context, q queryRower, id int64) (bool, error) {
	return exists(ctx, q, "type exists",
		`SELECT EXISTS (SELECT 1 FROM type_projects WHERE type_id = $1 AND deleted_at IS NULL)`, id)
}

func (r *ProjectTypeRepo) writeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	switch code, _ := pgCode(err); code {
	case pgUniqueViolation:
		return ErrDuplicateTypeName
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return storeErr(op, err)
}
