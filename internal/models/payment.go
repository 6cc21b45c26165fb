package models

import "time"

// PaymentRecord is an append-only fee payment made by a student for an academic period.
type PaymentRecord struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Amount       float64   `db:"amount" json:"amount"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	Reference    string    `db:"reference" json:"reference"`
	PaidAt       time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PaymentFilter scopes payment listings.
type PaymentFilter struct {
	StudentID    string
	AcademicYear string
	Semester     int
}
