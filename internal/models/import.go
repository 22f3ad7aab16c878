package models

import "strings"

// ImportKind names the entity a CSV file carries.
type ImportKind string

const (
	ImportUsers       ImportKind = "users"
	ImportStudents    ImportKind = "students"
	ImportFaculty     ImportKind = "faculty"
	ImportCourses     ImportKind = "courses"
	ImportEnrollments ImportKind = "enrollments"
)

// ImportKinds lists the kinds in dependency order.
var ImportKinds = []ImportKind{ImportUsers, ImportStudents, ImportFaculty, ImportCourses, ImportEnrollments}

func (k ImportKind) Valid() bool {
	for _, known := range ImportKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ImportRowError reports why one line was not applied.
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarises one reconciliation batch.
type ImportReport struct {
	Kind      ImportKind       `json:"kind"`
	Processed int              `json:"processed"`
	Created   int              `json:"created"`
	Skipped   int              `json:"skipped"`
	Errors    []ImportRowError `json:"errors"`
}

// ExportFormat selects the export renderer.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ParseExportFormat defaults a blank format to CSV.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return ExportCSV, true
	case ExportCSV, ExportPDF:
		return f, true
	default:
		return "", false
	}
}
