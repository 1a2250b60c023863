package constants

import "birthpad-backend/internal/pkg/constants"

// ActionRoles maps each signed action to the minimum role allowed to perform it.
// Ownership of the launch is checked separately by the lifecycle engine.
var ActionRoles = map[string]string{
	CreateProject:    constants.Founder,
	BuyProject:       constants.Investor,
	ClaimableProject: constants.Investor,
	ClaimProject:     constants.Investor,
	UpdateWhitelist:  constants.Founder,
	PauseProject:     constants.Founder,
	ResumeProject:    constants.Founder,
	FinalizeProject:  constants.Founder,
	RefundProject:    constants.Founder,
}

// AllowedRole returns true if role meets the minimum role for action.
func AllowedRole(action, role string) bool {
	min, ok := ActionRoles[action]
	if !ok {
		return false
	}
	return constants.AtLeast(role, min)
}
