package models

// Student shares its primary key with users.
type Student struct {
	UserID       string `db:"user_id" json:"user_id"`
	RollNo       string `db:"roll_no" json:"roll_no"`
	Name         string `db:"name" json:"name"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	Semester     int    `db:"semester" json:"semester"`
}

// StudentDetail enriches Student with joined names.
type StudentDetail struct {
	Student
	Username       string `db:"username" json:"username"`
	DepartmentName string `db:"department_name" json:"department_name"`
}
