package dto

// CreateRegistrationRequest registers a student for courses in a period. Empty CourseCodes
// registers every resolved course.
type CreateRegistrationRequest struct {
	StudentID    string   `json:"student_id" validate:"required"`
	AcademicYear string   `json:"academic_year" validate:"required"`
	Semester     int      `json:"semester" validate:"required,min=1,max=3"`
	CourseCodes  []string `json:"course_codes" validate:"omitempty,dive,required"`
}
