package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/project-archive/internal/model"
)

// ProjectRepo reads and writes `projects` together with their membership in
// `user_project_mapping`.
type ProjectRepo struct {
	db    *sql.DB
	types *ProjectTypeRepo
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db, types: NewProjectTypeRepo(db)}
}

// ProjectInput is the full set of writable project fields.  File is nil when
// no file was uploaded; on update that keeps the stored file.
type ProjectInput struct {
	TypeID     int64
	NameTH     string
	NameEN     string
	AbstractTH *string
	AbstractEN *string
	Keywords   []string
	Date       *model.Date
	File       *model.FileRef
	Members    []model.Member
}

// normalize validates in and returns a cleaned copy.  The file check comes
// first so a request without a file is rejected before anything else.
func (in ProjectInput) normalize(requireFile bool) (ProjectInput, error) {
	if requireFile && (in.File == nil || in.File.Path == "") {
		return in, ErrNoFileUploaded
	}
	in.NameTH = strings.TrimSpace(in.NameTH)
	in.NameEN = strings.TrimSpace(in.NameEN)
	if in.TypeID <= 0 {
		return in, invalid("type_id is required")
	}
	if in.NameTH == "" || in.NameEN == "" {
		return in, invalid("project_name_th and project_name_en are required")
	}
	members, err := normalizeMembers(in.Members)
	if err != nil {
		return in, err
	}
	in.Members = members
	in.AbstractTH = blankToNil(in.AbstractTH)
	in.AbstractEN = blankToNil(in.AbstractEN)
	in.Keywords = cleanKeywords(in.Keywords)
	return in, nil
}

func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

// checkRefs verifies the project type and every member inside tx.
func (r *ProjectRepo) checkRefs(ctx context.Context, tx *sql.Tx, in ProjectInput) error {
	ok, err := r.types.ExistsActive(ctx, tx, in.TypeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: project type %d does not exist", ErrInvalidReference, in.TypeID)
	}
	return checkMembersExist(ctx, tx, in.Members)
}

// Create inserts the project row and its membership in one transaction and
// returns the new project id.  Nothing is written when validation fails or
// any member insert fails.
func (r *ProjectRepo) Create(ctx context.Context, in ProjectInput) (int64, error) {
	in, err := in.normalize(true)
	if err != nil {
		return 0, err
	}

	var id int64
	err = withTx(ctx, r.db, "create project", func(tx *sql.Tx) error {
		if err := r.checkRefs(ctx, tx, in); err != nil {
			return err
		}
		const q = `INSERT INTO projects
			(type_id, project_name_th, project_name_en, abstract_th, abstract_en, keywords, date, file_name, file_path)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
			RETURNING project_id`
		err := tx.QueryRowContext(ctx, q,
			in.TypeID, in.NameTH, in.NameEN, in.AbstractTH, in.AbstractEN,
			keywordList(in.Keywords), dateArg(in.Date), in.File.Name, in.File.Path,
		).Scan(&id)
		if err != nil {
			return storeErr("create project", err)
		}
		return replaceMembers(ctx, tx, id, in.Members)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update replaces every writable field of an active project and resyncs its
// membership to exactly in.Members.  Without a new file the stored file
// reference is kept.  It returns the path of a file that was replaced, or ""
// when the file did not change.
func (r *ProjectRepo) Update(ctx context.Context, id int64, in ProjectInput) (replaced string, err error) {
	in, err = in.normalize(false)
	if err != nil {
		return "", err
	}

	err = withTx(ctx, r.db, "update project", func(tx *sql.Tx) error {
		var cur model.FileRef
		err := tx.QueryRowContext(ctx,
			`SELECT file_name, file_path FROM projects WHERE project_id = $1 AND deleted_at IS NULL FOR UPDATE`,
			id).Scan(&cur.Name, &cur.Path)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return storeErr("update project", err)
		}
		if err := r.checkRefs(ctx, tx, in); err != nil {
			return err
		}

		file := cur
		if in.File != nil && in.File.Path != "" {
			file = *in.File
			replaced = cur.Path
		}
		const q = `UPDATE projects SET
			type_id = $1, project_name_th = $2, project_name_en = $3,
			abstract_th = $4, abstract_en = $5, keywords = $6::jsonb, date = $7,
			file_name = $8, file_path = $9, updated_at = NOW()
			WHERE project_id = $10`
		if _, err := tx.ExecContext(ctx, q,
			in.TypeID, in.NameTH, in.NameEN, in.AbstractTH, in.AbstractEN,
			keywordList(in.Keywords), dateArg(in.Date), file.Name, file.Path, id,
		); err != nil {
			return storeErr("update project", err)
		}
		return replaceMembers(ctx, tx, id, in.Members)
	})
	if err != nil {
		return "", err
	}
	return replaced, nil
}

// SoftDelete stamps deleted_at on an active project.  Membership rows stay so
// the project can be restored intact.
func (r *ProjectRepo) SoftDelete(ctx context.Context, id int64) (model.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`WITH p AS (
			UPDATE projects SET deleted_at = NOW()
			WHERE project_id = $1 AND deleted_at IS NULL
			RETURNING *
		)
		SELECT `+projectColumns+` FROM p LEFT JOIN type_projects t ON t.type_id = p.type_id`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, ErrNotFound
		}
		return model.Project{}, storeErr("delete project", err)
	}
	return p, nil
}
