package model

import "time"

// DateLayout is the wire and storage format of Project.Date.
const DateLayout = "2006-01-02"

// Project is a row of `projects`.  Keywords is always a list; a nil slice is
// serialized as an empty array by the repository layer.
type Project struct {
	ID         int64      `json:"project_id"`
	TypeID     *int64     `json:"type_id"`
	TypeName   *string    `json:"type_name,omitempty"`
	NameTH     string     `json:"project_name_th"`
	NameEN     string     `json:"project_name_en"`
	AbstractTH *string    `json:"abstract_th"`
	AbstractEN *string    `json:"abstract_en"`
	Keywords   []string   `json:"keywords"`
	Date       *Date      `json:"date"`
	FileName   string     `json:"file_name"`
	FilePath   string     `json:"file_path"`
	RoleGroup  *string    `json:"role_group,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Member is one entry of a project's membership list as submitted by a
// client: which user takes part and under what role label.
type Member struct {
	UserID    int64  `json:"user_id"`
	RoleGroup string `json:"role_group"`
}

// MemberView is a member as shown inside a ProjectView.
type MemberView struct {
	UserID    int64   `json:"user_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     string  `json:"email"`
	RoleGroup string  `json:"role_group"`
}

// ProjectView is the detail view of one project with its members folded
// into a single list.
type ProjectView struct {
	Project
	Users []MemberView `json:"users"`
}

// FileRef points at an uploaded file after storage.
type FileRef struct {
	Name string // original client file name
	Path string // public path the file is served from
}
