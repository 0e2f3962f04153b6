package services

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MSAL issues tokens whose email lands in different claims depending on the
// account type; the same goes for the stable subject id. Each list is tried
// in priority order and the first present claim wins.
var (
	microsoftEmailClaims   = []string{"preferred_username", "upn", "email"}
	microsoftSubjectClaims = []string{"oid", "sub"}
)

// MicrosoftVerifier extracts the identity from a Microsoft-issued token.
//
// The token's signature is NOT verified here: claims are decoded as-is and
// trusted because the SPA obtains the token straight from Microsoft over
// TLS. This is a weaker trust boundary than the Google path (see DESIGN.md).
type MicrosoftVerifier struct {
	parser *jwt.Parser
}

func NewMicrosoftVerifier() *MicrosoftVerifier {
	return &MicrosoftVerifier{parser: jwt.NewParser()}
}

func (v *MicrosoftVerifier) Verify(_ context.Context, rawToken string) (*ProviderIdentity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	email, ok := firstStringClaim(claims, microsoftEmailClaims)
	if !ok {
		return nil, fmt.Errorf("no email claim found (tried %v)", microsoftEmailClaims)
	}
	subject, ok := firstStringClaim(claims, microsoftSubjectClaims)
	if !ok {
		return nil, fmt.Errorf("no subject claim found (tried %v)", microsoftSubjectClaims)
	}

	name, _ := firstStringClaim(claims, []string{"name"})

	return &ProviderIdentity{
		Subject: subject,
		Email:   email,
		Name:    name,
	}, nil
}

// firstStringClaim returns the first of the named claims that is present as
// a non-empty string.
func firstStringClaim(claims jwt.MapClaims, names []string) (string, bool) {
	for _, name := range names {
		if val, ok := claims[name].(string); ok && val != "" {
			return val, true
		}
	}
	return "", false
}
