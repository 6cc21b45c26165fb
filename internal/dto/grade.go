package dto

import "github.com/noah-isme/unireg-api/internal/models"

// ComputeGradeRequest carries the three grade components; each may be a number, a numeric string, "" or null.
type ComputeGradeRequest struct {
	Assessment models.Score `json:"assessment"`
	MidSem     models.Score `json:"midsem"`
	Exam       models.Score `json:"exam"`
}

// GradeEntryRequest is one student's scores within a submission.
type GradeEntryRequest struct {
	StudentID  string       `json:"student_id" validate:"required"`
	Assessment models.Score `json:"assessment"`
	MidSem     models.Score `json:"midsem"`
	Exam       models.Score `json:"exam"`
}

// CreateGradeSubmissionRequest opens a draft submission for a course and period.
type CreateGradeSubmissionRequest struct {
	CourseCode   string              `json:"course_code" validate:"required"`
	AcademicYear string              `json:"academic_year" validate:"required"`
	Semester     int                 `json:"semester" validate:"required,min=1,max=3"`
	Entries      []GradeEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// GradeSubmissionQuery filters submission listings.
type GradeSubmissionQuery struct {
	CourseCode   string `form:"courseCode"`
	AcademicYear string `form:"academicYear"`
	Semester     int    `form:"semester" validate:"omitempty,min=1,max=3"`
	Status       string `form:"status" validate:"omitempty,oneof=draft pending_approval approved published"`
}

// GradePublicationPayload is the job payload that materialises a published submission.
type GradePublicationPayload struct {
	SubmissionID string `json:"submission_id"`
}
