package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("")
	assert.True(t, ok)
	assert.Equal(t, RoleStudent, role)

	role, ok = ParseRole(" Faculty ")
	assert.True(t, ok)
	assert.Equal(t, RoleFaculty, role)

	_, ok = ParseRole("janitor")
	assert.False(t, ok)
}

func TestParseTitleDefaults(t *testing.T) {
	assert.Equal(t, TitleHOD, ParseTitle("HOD"))
	assert.Equal(t, TitleAssistantProf, ParseTitle("dean"))
	assert.Equal(t, TitleAssistantProf, ParseTitle(""))
}

func TestParseAssessmentType(t *testing.T) {
	typ, ok := ParseAssessmentType("")
	assert.True(t, ok)
	assert.Equal(t, AssessmentAssignment, typ)

	_, ok = ParseAssessmentType("quiz")
	assert.False(t, ok)
}

func TestImportKindValid(t *testing.T) {
	assert.True(t, ImportKind("courses").Valid())
	assert.False(t, ImportKind("grades").Valid())
}

func TestParseExportFormat(t *testing.T) {
	f, ok := ParseExportFormat("")
	assert.True(t, ok)
	assert.Equal(t, ExportCSV, f)

	f, ok = ParseExportFormat("PDF")
	assert.True(t, ok)
	assert.Equal(t, ExportPDF, f)

	_, ok = ParseExportFormat("xlsx")
	assert.False(t, ok)
}
