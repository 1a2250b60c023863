package constants

const (
	Investor = "investor"
	Founder  = "founder"
	Admin    = "admin"
)

// ValidRoles is the set of allowed values for users.role, lowest rank first.
var ValidRoles = []string{Investor, Founder, Admin}

var roleRank = map[string]int{
	Investor: 1,
	Founder:  2,
	Admin:    3,
}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Rank returns the hierarchy rank of role, or 0 when unknown.
func Rank(role string) int {
	return roleRank[role]
}

// AtLeast reports whether role ranks at or above min.
func AtLeast(role, min string) bool {
	r := Rank(role)
	return r > 0 && r >= Rank(min)
}
