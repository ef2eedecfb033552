package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/project-archive/internal/model"
	"github.com/iliyamo/project-archive/internal/query"
)

var memberColumns = []string{"user_id", "project_id", "role_group"}

// normalizeMembers validates a membership list and returns it with trimmed
// role labels.  The list must be non-empty, every entry needs a positive
// user_id and a role_group, and a user may appear only once.
func normalizeMembers(members []model.Member) ([]model.Member, error) {
	if len(members) == 0 {
		return nil, invalid("No users provided in role_group")
	}
	out := make([]model.Member, 0, len(members))
	seen := make(map[int64]bool, len(members))
	for i, m := range members {
		role := strings.TrimSpace(m.RoleGroup)
		if m.UserID <= 0 || role == "" {
			return nil, invalid("Each user in role_group must have user_id and role_group (entry %d)", i)
		}
		if seen[m.UserID] {
			return nil, invalid("user %d appears more than once in role_group", m.UserID)
		}
		seen[m.UserID] = true
		out = append(out, model.Member{UserID: m.UserID, RoleGroup: role})
	}
	return out, nil
}

// checkMembersExist fails with ErrInvalidReference unless every member is an
// active user.
func checkMembersExist(ctx context.Context, tx *sql.Tx, members []model.Member) error {
	ids := make([]any, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	sel := query.Select{Columns: "COUNT(*)", From: "users", Where: "deleted_at IS NULL"}
	sel.Filter.And(query.In("user_id", len(ids)), ids...)
	stmt, args := sel.All()

	var n int
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return storeErr("check members", err)
	}
	if n != len(members) {
		return fmt.Errorf("%w: role_group references an unknown or deleted user", ErrInvalidReference)
	}
	return nil
}

// replaceMembers makes members the complete membership of the project: the
// existing rows are deleted and the list is inserted as one multi-row
// statement.  It is a destructive resync, not a merge, and must run inside
// the transaction that wrote the project row so a failed insert leaves the
// previous membership intact.
func replaceMembers(ctx context.Context, tx *sql.Tx, projectID int64, members []model.Member) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_project_mapping WHERE project_id = $1`, projectID); err != nil {
		return storeErr("clear members", err)
	}
	rows := make([][]any, len(members))
	for i, m := range members {
		rows[i] = []any{m.UserID, projectID, m.RoleGroup}
	}
	stmt, args := query.InsertRows("user_project_mapping", memberColumns, rows, "")
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		if code, _ := pgCode(err); code == pgForeignKeyViolation {
			return fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		return storeErr("insert members", err)
	}
	if n, err := res.RowsAffected(); err == nil && n != int64(len(members)) {
		return storeErr("insert members", fmt.Errorf("inserted %d of %d members", n, len(members)))
	}
	return nil
}
