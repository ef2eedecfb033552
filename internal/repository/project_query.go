package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/project-archive/internal/model"
	"github.com/iliyamo/project-archive/internal/query"
)

const projectFields = `p.project_name_th, p.project_name_en, p.abstract_th, p.abstract_en,
	p.keywords, p.date, p.file_name, p.file_path, p.created_at, p.updated_at, p.deleted_at`

// projectColumns reports the project's own type_id.
const projectColumns = `p.project_id, p.type_id, t.type_name, ` + projectFields

// listColumns takes type_id from a join restricted to active types, so a
// project whose type was soft deleted stays visible with a null type.
const (
	listColumns = `p.project_id, t.type_id, t.type_name, ` + projectFields
	listFrom    = `projects p LEFT JOIN type_projects t ON t.type_id = p.type_id AND t.deleted_at IS NULL`
	listOrder   = `p.created_at ASC, p.project_id ASC`
)

func scanProject(s rowScanner, extra ...any) (model.Project, error) {
	var (
		p    model.Project
		kw   keywordList
		date sql.NullTime
	)
	dest := append([]any{
		&p.ID, &p.TypeID, &p.TypeName, &p.NameTH, &p.NameEN, &p.AbstractTH, &p.AbstractEN,
		&kw, &date, &p.FileName, &p.FilePath, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.Project{}, err
	}
	p.Keywords = []string(kw)
	if date.Valid {
		p.Date = &model.Date{Time: date.Time}
	}
	return p, nil
}

// ProjectFilter narrows project listings.  Year is a Buddhist-calendar year.
type ProjectFilter struct {
	TypeID         *int64
	Search         string
	Year           *int
	IncludeDeleted bool
	Page           query.Page
}

func (f ProjectFilter) apply(sel *query.Select) {
	if f.IncludeDeleted {
		sel.Where = "TRUE"
	}
	if f.TypeID != nil {
		sel.Filter.And("p.type_id = ?", *f.TypeID)
	}
	if f.Search != "" {
		like := query.Contains(f.Search)
		sel.Filter.And(`p.project_name_th ILIKE ? OR p.project_name_en ILIKE ?
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.keywords) AS k(kw) WHERE k.kw ILIKE ?)`,
			like, like, like)
	}
	if f.Year != nil {
		sel.Filter.And("EXTRACT(YEAR FROM p.date) = ?", query.GregorianYear(*f.Year))
	}
}

// List returns one page of projects in creation order with the total count.
func (r *ProjectRepo) List(ctx context.Context, f ProjectFilter) ([]model.Project, int64, error) {
	sel := query.Select{
		Columns: listColumns,
		From:    listFrom,
		Where:   "p.deleted_at IS NULL",
		OrderBy: listOrder,
	}
	f.apply(&sel)
	return paginate(ctx, r.db, "list projects", &sel, f.Page, func(s rowScanner) (model.Project, error) {
		return scanProject(s)
	})
}

// ListMine returns the projects userID is a member of, each with the user's
// role_group.  TypeID in f is ignored.
func (r *ProjectRepo) ListMine(ctx context.Context, userID int64, f ProjectFilter) ([]model.Project, int64, error) {
	sel := query.Select{
		Columns: listColumns + `, m.role_group`,
		From:    listFrom + ` JOIN user_project_mapping m ON m.project_id = p.project_id`,
		Where:   "p.deleted_at IS NULL",
		OrderBy: listOrder,
	}
	sel.Filter.And("m.user_id = ?", userID)
	f.TypeID = nil
	f.apply(&sel)
	return paginate(ctx, r.db, "list my projects", &sel, f.Page, func(s rowScanner) (model.Project, error) {
		var role string
		p, err := scanProject(s, &role)
		p.RoleGroup = &role
		return p, err
	})
}

// memberRow is one row of the detail join: the project repeated once per
// member.
type memberRow struct {
	project model.Project
	member  model.MemberView
}

// foldProject collapses the fan-out of the detail join.  Scalar fields come
// from the first row; members are collected from every row.
func foldProject(rows []memberRow) (model.ProjectView, bool) {
	if len(rows) == 0 {
		return model.ProjectView{}, false
	}
	v := model.ProjectView{Project: rows[0].project, Users: make([]model.MemberView, 0, len(rows))}
	for _, r := range rows {
		v.Users = append(v.Users, r.member)
	}
	return v, true
}

// Get returns an active project with its members.  A project without any
// member row cannot be reconstructed and reads as ErrNotFound.
func (r *ProjectRepo) Get(ctx context.Context, id int64) (model.ProjectView, error) {
	const q = `SELECT ` + projectColumns + `,
			u.user_id, u.first_name, u.last_name, u.email, m.role_group
		FROM projects p
		JOIN type_projects t ON t.type_id = p.type_id
		JOIN user_project_mapping m ON m.project_id = p.project_id
		JOIN users u ON u.user_id = m.user_id
		WHERE p.project_id = $1 AND p.deleted_at IS NULL
		ORDER BY u.user_id`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return model.ProjectView{}, storeErr("get project", err)
	}
	defer rows.Close()

	var all []memberRow
	for rows.Next() {
		var m model.MemberView
		p, err := scanProject(rows, &m.UserID, &m.FirstName, &m.LastName, &m.Email, &m.RoleGroup)
		if err != nil {
			return model.ProjectView{}, storeErr("get project", err)
		}
		all = append(all, memberRow{project: p, member: m})
	}
	if err := rows.Err(); err != nil {
		return model.ProjectView{}, storeErr("get project", err)
	}

	v, ok := foldProject(all)
	if !ok {
		return model.ProjectView{}, ErrNotFound
	}
	return v, nil
}
