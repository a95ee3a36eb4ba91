// Package enrich implements the per-row enrichment pipeline: generative
// search, structured parse, conditional email verification, and alternate
// email discovery with score-based arbitration.
package enrich

import "fmt"

// Role is a government-contact category. It selects the search prompt and
// the output tag. The zero value means "skip this section".
type Role int

const (
	RoleSkip     Role = 0
	RoleGIS      Role = 1
	RoleMayor    Role = 2
	RoleAssessor Role = 3
)

// ParseRole converts a numeric choice into a Role.
func ParseRole(v int) (Role, error) {
	switch Role(v) {
	case RoleSkip, RoleGIS, RoleMayor, RoleAssessor:
		return Role(v), nil
	default:
		return RoleSkip, fmt.Errorf("enrich: invalid role %d", v)
	}
}

// String returns the human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleGIS:
		return "GIS Manager"
	case RoleMayor:
		return "Mayor/County Manager"
	case RoleAssessor:
		return "Property Assessor"
	case RoleSkip:
		return "Skip"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Tag returns the output tag written into file names and tag columns.
func (r Role) Tag() string {
	switch r {
	case RoleGIS:
		return "NG911"
	case RoleMayor:
		return "Mayor"
	case RoleAssessor:
		return "QQ"
	default:
		return "data"
	}
}

// ContactTag returns the value written to the Tag / Contact Tag columns,
// or "" for roles that tag nothing.
func (r Role) ContactTag() string {
	switch r {
	case RoleGIS:
		return "NG911"
	case RoleAssessor:
		return "QQ"
	default:
		return ""
	}
}
