package transactions

import (
	"context"
	"time"

	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	Store *ledger.Store
}

// Query filters the feed. Empty fields are ignored.
type Query struct {
	ProjectID string
	Wallet    string
	Limit     int
}

type FormattedTx struct {
	ID             string                 `json:"id"`
	ProjectID      string                 `json:"projectId"`
	ProjectName    *string                `json:"projectName"`
	ContributionID *string                `json:"contributionId,omitempty"`
	Wallet         *string                `json:"wallet"`
	TxHash         string                 `json:"txHash"`
	Direction      string                 `json:"direction"`
	EventType      string                 `json:"eventType"`
	Amount         decimal.Decimal        `json:"amount"`
	Status         string                 `json:"status"`
	Metadata       map[string]interface{} `json:"metadata"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// Feed lists settlement records newest first, joined with project names and wallets.
// An unknown wallet yields an empty feed.
func (s *Service) Feed(ctx context.Context, q Query) ([]FormattedTx, error) {
	filter := ledger.TxFilter{ProjectID: q.ProjectID, Limit: clampLimit(q.Limit)}
	if q.Wallet != "" {
		user, err := s.Store.FindUserByWallet(ctx, q.Wallet)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return []FormattedTx{}, nil
		}
		filter.UserID = user.ID
	}

	txs, err := s.Store.ListTxs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return []FormattedTx{}, nil
	}

	projIDs := map[string]bool{}
	userIDs := map[string]bool{}
	for _, tx := range txs {
		projIDs[tx.ProjectID] = true
		if tx.UserID != nil {
			userIDs[*tx.UserID] = true
		}
	}

	nameMap := map[string]string{}
	if len(projIDs) > 0 {
		var projs []domain.Project
		if err := s.Store.DB.WithContext(ctx).Where("id IN ?", keys(projIDs)).Select("id, name").Find(&projs).Error; err != nil {
			return nil, err
		}
		for _, p := range projs {
			nameMap[p.ID] = p.Name
		}
	}

	walletMap := map[string]string{}
	if len(userIDs) > 0 {
		var users []domain.User
		if err := s.Store.DB.WithContext(ctx).Where("id IN ?", keys(userIDs)).Select("id, wallet_address").Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			walletMap[u.ID] = u.WalletAddress
		}
	}

	out := make([]FormattedTx, len(txs))
	for i, tx := range txs {
		ft := FormattedTx{
			ID:             tx.ID,
			ProjectID:      tx.ProjectID,
			ContributionID: tx.ContributionID,
			TxHash:         tx.TxHash,
			Direction:      tx.Direction,
			EventType:      tx.EventType,
			Amount:         tx.Amount,
			Status:         tx.Status,
			Metadata:       tx.Metadata,
			CreatedAt:      tx.CreatedAt,
		}
		if name, ok := nameMap[tx.ProjectID]; ok {
			ft.ProjectName = &name
		}
		if tx.UserID != nil {
			if w, ok := walletMap[*tx.UserID]; ok {
				ft.Wallet = &w
			}
		}
		out[i] = ft
	}
	return out, nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
