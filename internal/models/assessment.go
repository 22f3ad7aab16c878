package models

import "strings"

// AssessmentType classifies an assessment.
type AssessmentType string

const (
	AssessmentExam       AssessmentType = "exam"
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentProject    AssessmentType = "project"
)

// ParseAssessmentType defaults blank input to assignment.
func ParseAssessmentType(raw string) (AssessmentType, bool) {
	switch t := AssessmentType(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return AssessmentAssignment, true
	case AssessmentExam, AssessmentAssignment, AssessmentProject:
		return t, true
	default:
		return t, false
	}
}

// Assessment is a graded unit of work within a course.
type Assessment struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	FullMarks float64        `db:"full_marks" json:"full_marks"`
	Type      AssessmentType `db:"type" json:"type"`
	CourseID  int64          `db:"course_id" json:"course_id"`
}

// CreateAssessmentRequest is the payload for POST /courses/:id/assessments.
type CreateAssessmentRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	FullMarks float64 `json:"full_marks" validate:"gt=0,lte=999.99"`
	Type      string  `json:"type"`
}
