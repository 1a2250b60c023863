package constants

// Signed wallet actions. The action name is part of the signature payload, so
// a signature for one action never authorizes another.
const (
	CreateProject    = "create-project"
	BuyProject       = "buy-project"
	ClaimableProject = "claimable-project"
	ClaimProject     = "claim-project"
	UpdateWhitelist  = "update-whitelist"
	PauseProject     = "pause-project"
	ResumeProject    = "resume-project"
	FinalizeProject  = "finalize-project"
	RefundProject    = "refund-project"
)
