package models

// Role identifies what an actor forwarded by the gateway may do.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleAcademicAffairs Role = "ACADEMIC_AFFAIRS"
	RoleLecturer        Role = "LECTURER"
	RoleFinance         Role = "FINANCE"
	RoleStudent         Role = "STUDENT"
)

// Actor is the authenticated caller as asserted by the upstream gateway.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
