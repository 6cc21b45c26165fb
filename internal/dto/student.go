package dto

// CreateStudentRequest enrolls a student.
type CreateStudentRequest struct {
	RegistrationNumber string `json:"registration_number" validate:"required,max=32"`
	FullName           string `json:"full_name" validate:"required,max=128"`
	ProgramID          string `json:"program_id" validate:"required"`
	Level              string `json:"level" validate:"required"`
	StudyMode          string `json:"study_mode" validate:"required"`
}

// StudentListQuery filters student listings.
type StudentListQuery struct {
	ProgramID string `form:"programId"`
	Level     string `form:"level"`
	StudyMode string `form:"studyMode"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// UpdateStudentLevelRequest changes a student's level. AcademicYear defaults to the current period's year.
type UpdateStudentLevelRequest struct {
	Level        string `json:"level" validate:"required"`
	AcademicYear string `json:"academic_year"`
}
