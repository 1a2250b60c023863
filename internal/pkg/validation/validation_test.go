package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidWallet(t *testing.T) {
	assert.True(t, IsValidWallet("0xabc123"))
	assert.True(t, IsValidWallet("wallet_founder"))
	assert.False(t, IsValidWallet(""))
	assert.False(t, IsValidWallet("0x:evil"))
	assert.False(t, IsValidWallet("has space"))
}

func TestIsValidTokenSymbol(t *testing.T) {
	assert.True(t, IsValidTokenSymbol("BPD"))
	assert.False(t, IsValidTokenSymbol("B"))
	assert.False(t, IsValidTokenSymbol("BAD-SYM"))
}

func TestNormalizeWallets(t *testing.T) {
	got := NormalizeWallets([]string{" 0xa ", "0xb", "", "0xa"})
	assert.Equal(t, []string{"0xa", "0xb"}, got)
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("p_3f1c2a9e-7b4d-4e0a-9c1f-2d5e6a7b8c9d"))
	assert.True(t, IsValidID("c_1"))
	assert.False(t, IsValidID(""))
	assert.False(t, IsValidID("p.1"))
	assert.False(t, IsValidID("p_>"))
	assert.False(t, IsValidID("p *"))
}
