package identity

import (
	"context"
	"strings"

	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/pkg/constants"

	"github.com/rs/zerolog/log"
)

// Resolver maps a wallet to its role.
type Resolver struct {
	Store  *ledger.Store
	admins map[string]bool
}

func NewResolver(store *ledger.Store, adminWallets []string) *Resolver {
	admins := make(map[string]bool, len(adminWallets))
	for _, w := range adminWallets {
		if w = strings.TrimSpace(w); w != "" {
			admins[w] = true
		}
	}
	return &Resolver{Store: store, admins: admins}
}

// ParseAdminWallets splits a comma-separated ADMIN_WALLETS value.
func ParseAdminWallets(raw string) []string {
	var out []string
	for _, w := range strings.Split(raw, ",") {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (r *Resolver) IsAdmin(wallet string) bool {
	return r.admins[wallet]
}

// Resolve never fails: lookup errors fall back to the role of an unknown wallet.
func (r *Resolver) Resolve(ctx context.Context, wallet string) string {
	if r.admins[wallet] {
		return constants.Admin
	}
	u, err := r.Store.FindUserByWallet(ctx, wallet)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Msg("role lookup failed")
		return constants.Founder
	}
	if u == nil {
		return constants.Founder
	}
	return u.Role
}

// EnsureUser materializes the wallet's user with contextRole when it has none.
// Allow-listed wallets are stored (or upgraded) as admin; other stored roles are kept.
func (r *Resolver) EnsureUser(ctx context.Context, store *ledger.Store, wallet, contextRole string) (*domain.User, error) {
	if store == nil {
		store = r.Store
	}
	if r.admins[wallet] {
		return store.EnsureUser(ctx, wallet, constants.Admin, true)
	}
	return store.EnsureUser(ctx, wallet, contextRole, false)
}
