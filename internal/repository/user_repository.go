package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/project-archive/internal/model"
	"github.com/iliyamo/project-archive/internal/query"
	"github.com/iliyamo/project-archive/internal/utils"
)

// userColumns selects a user joined with its role; the alias u may be the
// users table or a CTE returning users rows.
const userColumns = `u.user_id, u.role_id, r.role_name, u.email, u.password_hash,
	u.first_name, u.last_name, u.created_at, u.updated_at, u.deleted_at`

// withUser wraps a data-modifying statement that ends in RETURNING * so the
// affected row comes back joined with its role name.
func withUser(stmt string) string {
	return `WITH u AS (` + stmt + `) SELECT ` + userColumns + ` FROM u JOIN roles r ON r.role_id = u.role_id`
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.RoleID, &u.RoleName, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	return u, err
}

// UserRepo reads and writes the `users` table.
type UserRepo struct {
	db    *sql.DB
	roles *RoleRepo
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, roles: NewRoleRepo(db)}
}

// UserFilter narrows List.  Search follows the name tokenization rule: one
// token matches first or last name, two tokens match first and last name in
// order, more tokens add no predicate.
type UserFilter struct {
	RoleID         *int64
	Search         string
	IncludeDeleted bool
	Page           query.Page
}

// List returns one page of users ordered by creation time and the total
// number of matching rows.  No match is an empty page, not an error.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]model.User, int64, error) {
	sel := query.Select{
		Columns: userColumns,
		From:    "users u JOIN roles r ON r.role_id = u.role_id",
		Where:   "u.deleted_at IS NULL",
		OrderBy: "u.created_at ASC, u.user_id ASC",
	}
	if f.IncludeDeleted {
		sel.Where = "TRUE"
	}
	if f.RoleID != nil {
		sel.Filter.And("u.role_id = ?", *f.RoleID)
	}
	addNameSearch(&sel.Filter, f.Search)

	return paginate(ctx, r.db, "list users", &sel, f.Page, scanUser)
}

func addNameSearch(f *query.Filter, search string) {
	switch tokens := query.Tokens(search); len(tokens) {
	case 1:
		like := query.Contains(tokens[0])
		f.And("u.first_name ILIKE ? OR u.last_name ILIKE ?", like, like)
	case 2:
		f.And("u.first_name ILIKE ? AND u.last_name ILIKE ?",
			query.Contains(tokens[0]), query.Contains(tokens[1]))
	}
}

// GetByID returns a user whether or not it is soft deleted.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.role_id = u.role_id WHERE u.user_id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, storeErr("get user", err)
	}
	return u, nil
}

// ExistsActive reports whether a non-deleted user has the id.
func (r *UserRepo) ExistsActive(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, "user exists",
		`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1 AND deleted_at IS NULL)`, id)
}

// RegisterInput carries a new account.  Password is plaintext and is only
// ever hashed.
type RegisterInput struct {
	RoleID    int64
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// Register creates a user with a bcrypt-hashed password.  The email must be
// unused by every row, soft-deleted accounts included.
func (r *UserRepo) Register(ctx context.Context, in RegisterInput, cost int) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.RoleID <= 0 || email == "" || in.Password == "" {
		return model.User{}, invalid("role_id, email and password are required")
	}

	ok, err := r.roles.Exists(ctx, in.RoleID)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, fmt.Errorf("%w: role %d does not exist", ErrInvalidReference, in.RoleID)
	}

	taken, err := exists(ctx, r.db, "check email", `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, ErrDuplicateEmail
	}

	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	row := r.db.QueryRowContext(ctx, withUser(
		`INSERT INTO users (role_id, email, password_hash, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5) RETURNING *`),
		in.RoleID, email, hash, blankToNil(in.FirstName), blankToNil(in.LastName))
	u, err := scanUser(row)
	if err != nil {
		switch code, _ := pgCode(err); code {
		case pgUniqueViolation:
			return model.User{}, ErrDuplicateEmail
		case pgForeignKeyViolation:
			return model.User{}, fmt.Errorf("%w: role %d does not exist", ErrInvalidReference, in.RoleID)
		}
		return model.User{}, storeErr("register user", err)
	}
	return u, nil
}

// Authenticate checks credentials.  An unknown email and a wrong password
// both yield ErrInvalidCredentials; correct credentials of a soft-deleted
// account yield ErrAccountDeleted.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.role_id = u.role_id WHERE u.email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, storeErr("authenticate", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	if u.Deleted() {
		return model.User{}, ErrAccountDeleted
	}
	return u, nil
}

// Update sets the supplied name fields of an active user and refreshes
// updated_at.  Blank values count as not supplied.
func (r *UserRepo) Update(ctx context.Context, id int64, firstName, lastName *string) (model.User, error) {
	firstName, lastName = blankToNil(firstName), blankToNil(lastName)
	if firstName == nil && lastName == nil {
		return model.User{}, ErrNoFieldsProvided
	}
	upd := query.NewUpdate("users")
	if firstName != nil {
		upd.Set("first_name", *firstName)
	}
	if lastName != nil {
		upd.Set("last_name", *lastName)
	}
	upd.SetExpr("updated_at = NOW()")
	stmt, args := upd.Where("user_id = ? AND deleted_at IS NULL RETURNING *", id)

	u, err := scanUser(r.db.QueryRowContext(ctx, withUser(stmt), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, storeErr("update user", err)
	}
	return u, nil
}

// SoftDelete stamps deleted_at.  Deleting an already deleted user keeps the
// original timestamp.  Dependent rows are left untouched.
func (r *UserRepo) SoftDelete(ctx context.Context, id int64) (model.User, error) {
	row := r.db.QueryRowContext(ctx, withUser(
		`UPDATE users SET deleted_at = COALESCE(deleted_at, NOW()) WHERE user_id = $1 RETURNING *`), id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, storeErr("delete user", err)
	}
	return u, nil
}

// Restore clears deleted_at of a soft-deleted user.  Every other column,
// updated_at included, keeps its value.
func (r *UserRepo) Restore(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := withTx(ctx, r.db, "restore user", func(tx *sql.Tx) error {
		var deleted bool
		err := tx.QueryRowContext(ctx,
			`SELECT deleted_at IS NOT NULL FROM users WHERE user_id = $1 FOR UPDATE`, id).Scan(&deleted)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return storeErr("restore user", err)
		}
		if !deleted {
			return ErrNotDeleted
		}
		u, err = scanUser(tx.QueryRowContext(ctx, withUser(
			`UPDATE users SET deleted_at = NULL WHERE user_id = $1 RETURNING *`), id))
		if err != nil {
			return storeErr("restore user", err)
		}
		return nil
	})
	return u, err
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
