package models

// Result is one student's mark on one assessment.
type Result struct {
	ID           int64   `db:"id" json:"id"`
	AssessmentID int64   `db:"assessment_id" json:"assessment_id"`
	StudentID    string  `db:"student_id" json:"student_id"`
	Marks        float64 `db:"marks" json:"marks"`
}

// ResultMark is one row of a bulk upsert.
type ResultMark struct {
	StudentID string
	Marks     float64
}

// EnterResultsRequest maps student ids to raw mark strings. Blank strings
// leave the stored result untouched.
type EnterResultsRequest struct {
	Marks map[string]string `json:"marks"`
}

// EnterResultsResult summarises a result entry operation.
type EnterResultsResult struct {
	AssessmentID int64 `json:"assessment_id"`
	Saved        int   `json:"saved"`
	Skipped      int   `json:"skipped"`
}

// ResultSheetRow is an enrolled student's mark on an assessment. Marks is
// nil when no result has been entered, which is distinct from zero.
type ResultSheetRow struct {
	StudentID string   `db:"student_id" json:"student_id"`
	RollNo    string   `db:"roll_no" json:"roll_no"`
	Name      string   `db:"name" json:"name"`
	Marks     *float64 `db:"marks" json:"marks"`
}

// StudentAssessmentRow is an assessment of an enrolled course with the
// student's mark, if any.
type StudentAssessmentRow struct {
	AssessmentID int64          `db:"assessment_id" json:"assessment_id"`
	Name         string         `db:"name" json:"name"`
	Type         AssessmentType `db:"type" json:"type"`
	FullMarks    float64        `db:"full_marks" json:"full_marks"`
	CourseID     int64          `db:"course_id" json:"course_id"`
	CourseCode   string         `db:"course_code" json:"course_code"`
	Marks        *float64       `db:"marks" json:"marks"`
}
