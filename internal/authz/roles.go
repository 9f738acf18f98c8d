package authz

const (
	RolePatient      = "PATIENT"
	RoleDoctor       = "DOCTOR"
	RoleOrganization = "ORGANIZATION"
	RoleAdmin        = "ADMIN"
)

const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

func IsValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleOrganization, RoleAdmin:
		return true
	}
	return false
}

// RequiresApproval reports whether accounts of this role start in PENDING
// state and need an admin decision before login.
func RequiresApproval(role string) bool {
	return role == RoleDoctor || role == RoleOrganization
}
