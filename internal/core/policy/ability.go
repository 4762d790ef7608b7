// Package policy is the authorization engine: it maps a principal's role to a
// set of rules and answers whether an (action, subject) pair is allowed.
//
// Everything not granted by a rule is denied.
package policy

// Action is what a principal wants to do with a subject.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionManage matches every action.
	ActionManage Action = "manage"
)

// Subject is the resource type an action applies to.
type Subject string

const (
	SubjectUser     Subject = "User"
	SubjectProduct  Subject = "Product"
	SubjectCategory Subject = "Category"
	SubjectTask     Subject = "Task"
	// SubjectAll matches every subject.
	SubjectAll Subject = "all"
)

// Rule grants Action on Subject. When OwnOnly is set the grant only holds for
// resources owned by the principal.
type Rule struct {
	Action  Action
	Subject Subject
	OwnOnly bool
}

func (r Rule) matches(action Action, subject Subject) bool {
	return (r.Action == ActionManage || r.Action == action) &&
		(r.Subject == SubjectAll || r.Subject == subject)
}

// Ability is the capability set of one principal.
type Ability struct {
	principalID string
	rules       []Rule
}

// NewAbility builds an ability for principalID from rules.
func NewAbility(principalID string, rules []Rule) Ability {
	return Ability{principalID: principalID, rules: rules}
}

// Can reports whether action on subject is allowed regardless of ownership.
func (a Ability) Can(action Action, subject Subject) bool {
	for _, r := range a.rules {
		if !r.OwnOnly && r.matches(action, subject) {
			return true
		}
	}
	return false
}

// CanOwn reports whether action is allowed on the subject instance owned by
// ownerID. Own-only rules apply when ownerID is the principal.
func (a Ability) CanOwn(action Action, subject Subject, ownerID string) bool {
	for _, r := range a.rules {
		if !r.matches(action, subject) {
			continue
		}
		if !r.OwnOnly {
			return true
		}
		if ownerID != "" && ownerID == a.principalID {
			return true
		}
	}
	return false
}

// CanSome reports whether any rule, conditional or not, could allow action on
// subject. Callers must follow up with CanOwn once the instance is known.
func (a Ability) CanSome(action Action, subject Subject) bool {
	for _, r := range a.rules {
		if r.matches(action, subject) {
			return true
		}
	}
	return false
}

// PrincipalID returns the id the ability was built for.
func (a Ability) PrincipalID() string {
	return a.principalID
}
