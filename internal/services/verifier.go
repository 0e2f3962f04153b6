package services

import "context"

// ProviderIdentity is the result of verifying a federated identity token:
// the provider's stable subject id plus the profile fields needed to create
// or link a local account.
type ProviderIdentity struct {
	Subject string
	Email   string
	Name    string
}

// TokenVerifier validates a provider-issued identity token and extracts the
// identity it attests to.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*ProviderIdentity, error)
}
