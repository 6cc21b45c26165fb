package dto

// SetCurrentPeriodRequest moves the current-period pointer.
type SetCurrentPeriodRequest struct {
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     int    `json:"semester" validate:"required,min=1,max=3"`
	Label        string `json:"label" validate:"omitempty,max=64"`
}
