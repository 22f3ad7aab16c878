package models

import "strings"

// FacultyTitle is the academic rank of a faculty member.
type FacultyTitle string

const (
	TitleAssistantProf FacultyTitle = "assistant_prof"
	TitleAssociateProf FacultyTitle = "associate_prof"
	TitleHOD           FacultyTitle = "hod"
	TitleNonTeaching   FacultyTitle = "non_teaching"
)

// ParseTitle maps a free-form title onto a known one, defaulting to
// assistant professor.
func ParseTitle(raw string) FacultyTitle {
	switch t := FacultyTitle(strings.ToLower(strings.TrimSpace(raw))); t {
	case TitleAssistantProf, TitleAssociateProf, TitleHOD, TitleNonTeaching:
		return t
	default:
		return TitleAssistantProf
	}
}

// Faculty shares its primary key with users.
type Faculty struct {
	UserID       string       `db:"user_id" json:"user_id"`
	Name         string       `db:"name" json:"name"`
	DepartmentID int64        `db:"department_id" json:"department_id"`
	Title        FacultyTitle `db:"title" json:"title"`
}

// FacultyDetail enriches Faculty with joined names.
type FacultyDetail struct {
	Faculty
	Username       string `db:"username" json:"username"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// CreateFacultyRequest is the payload for POST /faculty.
type CreateFacultyRequest struct {
	Username   string `json:"username" validate:"required,max=150"`
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"omitempty,email"`
	Department string `json:"department" validate:"required,max=100"`
	Title      string `json:"title" validate:"omitempty"`
	Password   string `json:"password" validate:"omitempty,min=6"`
}
