package models

import "time"

const (
	AuditActionLogin            = "LOGIN"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionImport           = "IMPORT"
	AuditActionMarkAttendance   = "MARK_ATTENDANCE"
	AuditActionEnterResults     = "ENTER_RESULTS"
	AuditActionCreateAssessment = "CREATE_ASSESSMENT"
	AuditActionCreateDepartment = "CREATE_DEPARTMENT"
	AuditActionProvisionFaculty = "PROVISION_FACULTY"
	AuditActionEnroll           = "ENROLL"
	AuditActionUnenroll         = "UNENROLL"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
