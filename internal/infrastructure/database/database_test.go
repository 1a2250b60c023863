package database

import (
	"testing"

	"birthpad-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_AssignsPrefixedIDs(t *testing.T) {
	db := NewTestDB(t)

	u := domain.User{WalletAddress: "0xabc", Role: "investor"}
	require.NoError(t, db.Create(&u).Error)
	assert.Contains(t, u.ID, "u_")

	tx := domain.Tx{ProjectID: "p_1", TxHash: "0x1", Direction: domain.DirectionIn, EventType: domain.EventContributionSubmitted, Amount: decimal.NewFromInt(5), Status: domain.TxPending}
	require.NoError(t, db.Create(&tx).Error)
	assert.Contains(t, tx.ID, "t_")
	assert.NotNil(t, tx.Metadata)
}

func TestTx_UpdateRejected(t *testing.T) {
	db := NewTestDB(t)
	tx := domain.Tx{ProjectID: "p_1", TxHash: "0x1", Direction: domain.DirectionIn, EventType: domain.EventContributionSubmitted, Amount: decimal.NewFromInt(5), Status: domain.TxPending}
	require.NoError(t, db.Create(&tx).Error)

	err := db.Model(&tx).Update("status", domain.TxConfirmed).Error
	assert.ErrorIs(t, err, domain.ErrTxImmutable)
}
