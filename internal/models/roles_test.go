package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValidation(t *testing.T) {
	for _, role := range AllRoles() {
		assert.True(t, role.IsValid())
	}
	assert.False(t, Role("Mayor").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestIsStaff(t *testing.T) {
	assert.False(t, RoleResident.IsStaff())
	assert.True(t, RoleWardCouncillor.IsStaff())
	assert.True(t, RoleMunicipalOfficial.IsStaff())
	assert.True(t, RoleMunicipalWorker.IsStaff())
	assert.True(t, RoleExecutive.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		permission Permission
		want       bool
	}{
		{"resident reports issues", RoleResident, PermissionReportIssue, true},
		{"resident rates issues", RoleResident, PermissionRateIssue, true},
		{"resident cannot update status", RoleResident, PermissionUpdateStatus, false},
		{"worker updates status", RoleMunicipalWorker, PermissionUpdateStatus, true},
		{"worker adds work photos", RoleMunicipalWorker, PermissionAddWorkPhoto, true},
		{"worker cannot assign others", RoleMunicipalWorker, PermissionAssignWorkers, false},
		{"official assigns workers", RoleMunicipalOfficial, PermissionAssignWorkers, true},
		{"councillor publishes announcements", RoleWardCouncillor, PermissionCreateAnnouncement, true},
		{"councillor views jobseekers", RoleWardCouncillor, PermissionViewJobseekers, true},
		{"councillor cannot report issues", RoleWardCouncillor, PermissionReportIssue, false},
		{"admin manages announcements", RoleAdmin, PermissionManageAnnouncements, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.HasPermission(tt.permission))
		})
	}
}

func TestRoleHistoryActor(t *testing.T) {
	assert.Equal(t, ActorResident, RoleResident.HistoryActor())
	assert.Equal(t, ActorMunicipality, RoleMunicipalWorker.HistoryActor())
	assert.Equal(t, ActorMunicipality, RoleMunicipalOfficial.HistoryActor())
}

func TestUserPasswordRoundTrip(t *testing.T) {
	var user User
	assert.NoError(t, user.SetPassword("hunter22"))
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	assert.True(t, user.ComparePassword("hunter22"))
	assert.False(t, user.ComparePassword("wrong"))
}
