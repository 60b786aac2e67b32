// internal/models/roles.go

package models

// Role is a user's role in the service delivery platform.
type Role string

const (
	RoleResident          Role = "Resident"
	RoleWardCouncillor    Role = "Ward Councillor"
	RoleMunicipalOfficial Role = "Municipal Official"
	RoleMunicipalWorker   Role = "Municipal Worker"
	RoleExecutive         Role = "Executive"
	RoleAdmin             Role = "Admin"
)

// Permission is a named capability granted to one or more roles.
type Permission string

const (
	PermissionReportIssue         Permission = "report_issue"
	PermissionRateIssue           Permission = "rate_issue"
	PermissionTriageIssues        Permission = "triage_issues"
	PermissionAssignWorkers       Permission = "assign_workers"
	PermissionUpdateStatus        Permission = "update_status"
	PermissionAddWorkPhoto        Permission = "add_work_photo"
	PermissionCreateAnnouncement  Permission = "create_announcement"
	PermissionViewAllDashboards   Permission = "view_all_dashboards"
	PermissionManageAnnouncements Permission = "manage_announcements"
	PermissionViewJobseekers      Permission = "view_jobseekers"
)

// rolePermissions maps each role to the capabilities it carries.
var rolePermissions = map[Role][]Permission{
	RoleResident: {
		PermissionReportIssue,
		PermissionRateIssue,
	},
	RoleWardCouncillor: {
		PermissionCreateAnnouncement,
		PermissionViewJobseekers,
	},
	RoleMunicipalOfficial: {
		PermissionTriageIssues,
		PermissionAssignWorkers,
		PermissionUpdateStatus,
		PermissionCreateAnnouncement,
		PermissionViewJobseekers,
	},
	RoleMunicipalWorker: {
		PermissionUpdateStatus,
		PermissionAddWorkPhoto,
	},
	RoleExecutive: {
		PermissionCreateAnnouncement,
	},
	RoleAdmin: {
		PermissionTriageIssues,
		PermissionAssignWorkers,
		PermissionUpdateStatus,
		PermissionCreateAnnouncement,
		PermissionViewAllDashboards,
		PermissionManageAnnouncements,
		PermissionViewJobseekers,
	},
}

// IsValid reports whether the role is one of the six known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleResident, RoleWardCouncillor, RoleMunicipalOfficial,
		RoleMunicipalWorker, RoleExecutive, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to the municipality side.
func (r Role) IsStaff() bool {
	return r.IsValid() && r != RoleResident
}

// HasPermission checks whether the role carries the given permission.
func (r Role) HasPermission(permission Permission) bool {
	for _, p := range rolePermissions[r] {
		if p == permission {
			return true
		}
	}
	return false
}

// HistoryActor maps the role onto the actor label recorded in issue
// history entries.
func (r Role) HistoryActor() HistoryActor {
	if r == RoleResident {
		return ActorResident
	}
	return ActorMunicipality
}

func (r Role) String() string {
	return string(r)
}

// AllRoles returns the list of all known roles.
func AllRoles() []Role {
	return []Role{
		RoleResident,
		RoleWardCouncillor,
		RoleMunicipalOfficial,
		RoleMunicipalWorker,
		RoleExecutive,
		RoleAdmin,
	}
}

// RoleFromString converts a string into a Role, reporting validity.
func RoleFromString(role string) (Role, bool) {
	r := Role(role)
	if r.IsValid() {
		return r, true
	}
	return "", false
}
