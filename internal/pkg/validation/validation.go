package validation

import (
	"regexp"
	"strings"
)

// Wallet addresses are opaque identifiers: no whitespace, no separators used
// inside the signed payload.
var walletRe = regexp.MustCompile(`^[A-Za-z0-9_\-\.]{3,128}$`)

var tokenSymbolRe = regexp.MustCompile(`^[A-Za-z0-9]{2,12}$`)

// Entity ids also name bus subjects, so they exclude subject separators and wildcards.
var idRe = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

func IsValidWallet(wallet string) bool {
	return walletRe.MatchString(wallet)
}

func IsValidID(id string) bool {
	return idRe.MatchString(id)
}

func IsValidTokenSymbol(symbol string) bool {
	return tokenSymbolRe.MatchString(symbol)
}

// NormalizeWallets trims entries, drops blanks and removes duplicates while
// keeping first-seen order.
func NormalizeWallets(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, w := range in {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
