package policy

import "github.com/storefront/storefront-api/internal/core/domain"

// Roles maps a role name to the rules it grants.
type Roles map[string][]Rule

// DefaultRoles is the built-in role table.
var DefaultRoles = Roles{
	domain.RoleAdmin: {
		{Action: ActionManage, Subject: SubjectAll},
	},
	domain.RoleUser: {
		{Action: ActionRead, Subject: SubjectProduct},
		{Action: ActionRead, Subject: SubjectCategory},
		{Action: ActionManage, Subject: SubjectTask, OwnOnly: true},
		{Action: ActionRead, Subject: SubjectUser, OwnOnly: true},
		{Action: ActionUpdate, Subject: SubjectUser, OwnOnly: true},
	},
}

// Factory builds abilities from a role table.
type Factory struct {
	roles Roles
}

// NewFactory returns a Factory over roles. A nil table uses DefaultRoles.
func NewFactory(roles Roles) *Factory {
	if roles == nil {
		roles = DefaultRoles
	}
	return &Factory{roles: roles}
}

// For returns the ability of the principal identified by id with role.
// Unknown roles get an empty rule set.
func (f *Factory) For(id, role string) Ability {
	return NewAbility(id, f.roles[role])
}
