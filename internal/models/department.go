package models

// Department is an organisational unit; names are unique.
type Department struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CreateDepartmentRequest is the payload for POST /departments.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
