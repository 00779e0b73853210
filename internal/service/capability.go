package service

import "github.com/noah-isme/lms-enrol-api/internal/models"

// Capability names understood by the enrolment admin surface.
const (
	CapabilityConfigureInstances = "enrol/config"
	CapabilityViewRecords        = "enrol/viewrecords"
)

// CapabilityChecker decides whether the acting identity holds a named
// capability. The admin configuration surface gates on it; the naming scheme
// itself is owned by the checker implementation.
type CapabilityChecker interface {
	HasCapability(capability string, claims *models.JWTClaims) bool
}

// RoleCapabilityChecker grants capabilities from a static role table.
type RoleCapabilityChecker struct {
	grants map[string][]models.UserRole
}

// NewRoleCapabilityChecker builds the default capability table: admins
// configure instances, teachers may additionally inspect enrolment records.
func NewRoleCapabilityChecker() *RoleCapabilityChecker {
	return &RoleCapabilityChecker{grants: map[string][]models.UserRole{
		CapabilityConfigureInstances: {models.RoleSuperAdmin, models.RoleAdmin},
		CapabilityViewRecords:        {models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher},
	}}
}

// HasCapability reports whether the claims' role holds the capability.
func (c *RoleCapabilityChecker) HasCapability(capability string, claims *models.JWTClaims) bool {
	if claims == nil {
		return false
	}
	for _, role := range c.grants[capability] {
		if claims.Role == role {
			return true
		}
	}
	return false
}
