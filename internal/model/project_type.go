package model

import "time"

// ProjectType is a row of `type_projects`, the category a project is filed
// under.  ProjectCount is only populated by listings and counts the type's
// non-deleted projects.
type ProjectType struct {
	ID           int64      `json:"type_id"`
	UserID       int64      `json:"user_id"`
	Name         string     `json:"type_name"`
	ProjectCount *int64     `json:"project_count,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}
