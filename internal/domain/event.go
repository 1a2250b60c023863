package domain

import "github.com/shopspring/decimal"

// Settlement event types delivered by the chain indexer (or emitted in-process).
const (
	EventContributionSubmitted = "ContributionSubmitted"
	EventContributionConfirmed = "ContributionConfirmed"
	EventSaleFinalized         = "SaleFinalized"
	EventContributionRefunded  = "ContributionRefunded"
	EventContributionClaimed   = "ContributionClaimed"
)

// SettlementEvent is the asynchronous fact applied to the ledger after the
// originating request has returned.
type SettlementEvent struct {
	Type           string          `json:"type"`
	LaunchID       string          `json:"launchId"`
	ContributionID string          `json:"contributionId,omitempty"`
	WalletUserID   string          `json:"walletUserId,omitempty"`
	TxHash         string          `json:"txHash"`
	Amount         decimal.Decimal `json:"amount"`
}

// Settleable reports whether t is one of the event types the applier consumes.
func Settleable(t string) bool {
	switch t {
	case EventContributionConfirmed, EventSaleFinalized, EventContributionRefunded:
		return true
	}
	return false
}
