package models

// Role represents the access level carried by an API token
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Actions checked by the permission middleware
const (
	ActionViewHealth  = "view_health"
	ActionViewCatalog = "view_catalog"
	ActionRecordLogs  = "record_logs"
	ActionReportHours = "report_hours"
	ActionManagePlans = "manage_plans"
)

// Claims represents JWT claims
type Claims struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
	Exp     int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role may perform a specific action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin, RoleManager:
		return true
	case RoleOperator:
		return action == ActionViewHealth || action == ActionViewCatalog ||
			action == ActionRecordLogs || action == ActionReportHours
	case RoleViewer:
		return action == ActionViewHealth || action == ActionViewCatalog
	default:
		return false
	}
}
