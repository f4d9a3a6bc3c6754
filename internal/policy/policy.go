// Package policy decides who may act on which employee record.
//
// Authorization rules:
//   - Employees can read and edit only their own record, forms and documents
//   - HR admins and admins manage employee accounts, review forms and toggle form access
//   - Only the HR super admin creates or modifies HR and admin accounts
//   - Nobody deactivates their own account
package policy

import (
	"fmt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Role domain.Role
}

// IsHR reports whether the actor works on the HR side.
func (a Actor) IsHR() bool { return a.Role.IsHR() }

// IsSuperAdmin reports whether the actor has the highest tier.
func (a Actor) IsSuperAdmin() bool { return a.Role == domain.RoleHRSuperAdmin }

func deny(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{domain.ErrForbidden}, args...)...)
}

// RequireHR fails for non-HR callers.
func RequireHR(a Actor) error {
	if !a.IsHR() {
		return deny("HR role required")
	}
	return nil
}

// RequireSuperAdmin fails unless the caller is the HR super admin.
func RequireSuperAdmin(a Actor) error {
	if !a.IsSuperAdmin() {
		return deny("super admin role required")
	}
	return nil
}

// CanCreateAccount checks account registration. HR creates employees; HR and admin
// accounts are reserved for the super admin.
func CanCreateAccount(a Actor, target domain.Role) error {
	if err := RequireHR(a); err != nil {
		return err
	}
	if target != domain.RoleEmployee && !a.IsSuperAdmin() {
		return deny("only the super admin may create %s accounts", target)
	}
	return nil
}

// CanView allows self access and any HR caller.
func CanView(a Actor, target *domain.Employee) error {
	if a.ID == target.ID || a.IsHR() {
		return nil
	}
	return deny("cannot view another employee")
}

// CanManage checks HR mutations on target: profile edits, stage changes, reviews, access toggles.
func CanManage(a Actor, target *domain.Employee) error {
	if err := RequireHR(a); err != nil {
		return err
	}
	if target.Role.IsHR() && !a.IsSuperAdmin() {
		return deny("only the super admin may modify %s accounts", target.Role)
	}
	return nil
}

// CanDeactivate is CanManage plus a self-protection rule.
func CanDeactivate(a Actor, target *domain.Employee) error {
	if a.ID == target.ID {
		return deny("cannot deactivate your own account")
	}
	return CanManage(a, target)
}

// CanAssignHR checks that the chosen onboarding HR holds an HR role.
func CanAssignHR(hr *domain.Employee) error {
	if hr == nil || !hr.Role.IsHR() {
		return domain.ErrInvalidHR
	}
	return nil
}
