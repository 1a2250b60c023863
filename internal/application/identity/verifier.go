// Package identity authenticates signed wallet requests and resolves roles.
package identity

import (
	"context"
	"fmt"

	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/pkg/validation"
)

// Credentials are the signed headers of a wallet request.
type Credentials struct {
	Wallet    string
	Nonce     string
	Signature string
}

// Actor is a verified wallet.
type Actor struct {
	Wallet string
	Nonce  string
	Role   string
}

type Verifier struct {
	Secret   string
	Nonces   NonceStore
	Resolver *Resolver
}

func NewVerifier(secret string, nonces NonceStore, resolver *Resolver) *Verifier {
	return &Verifier{Secret: secret, Nonces: nonces, Resolver: resolver}
}

// Verify checks a signed request for action. On success the nonce is consumed
// and stays consumed whatever happens to the request afterwards.
func (v *Verifier) Verify(ctx context.Context, cred Credentials, action string, body []byte) (*Actor, error) {
	if cred.Wallet == "" || cred.Nonce == "" || cred.Signature == "" {
		return nil, domain.ErrUnauthenticated
	}
	// A separator inside the wallet would let two (wallet, nonce) pairs share a payload.
	if !validation.IsValidWallet(cred.Wallet) {
		return nil, domain.ErrUnauthenticated
	}

	seen, err := v.Nonces.Seen(ctx, cred.Wallet, cred.Nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce lookup: %w", err)
	}
	if seen {
		return nil, domain.ErrNonceReplayed
	}

	expected := Sign(v.Secret, cred.Wallet, cred.Nonce, action, body)
	if !signatureMatches(expected, cred.Signature) {
		return nil, domain.ErrInvalidSignature
	}

	fresh, err := v.Nonces.Consume(ctx, cred.Wallet, cred.Nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce consume: %w", err)
	}
	if !fresh {
		return nil, domain.ErrNonceReplayed
	}

	return &Actor{
		Wallet: cred.Wallet,
		Nonce:  cred.Nonce,
		Role:   v.Resolver.Resolve(ctx, cred.Wallet),
	}, nil
}
