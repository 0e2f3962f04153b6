package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The signature on these tokens is irrelevant: the Microsoft verifier only
// decodes claims.
func microsoftToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unused"))
	require.NoError(t, err)
	return tok
}

func TestMicrosoftVerifier_ClaimPriority(t *testing.T) {
	t.Parallel()

	v := NewMicrosoftVerifier()
	ctx := context.Background()

	tests := []struct {
		name        string
		claims      jwt.MapClaims
		wantEmail   string
		wantSubject string
	}{
		{
			name: "preferred_username wins over upn and email",
			claims: jwt.MapClaims{
				"preferred_username": "pref@x.com",
				"upn":                "upn@x.com",
				"email":              "email@x.com",
				"oid":                "oid-1",
			},
			wantEmail:   "pref@x.com",
			wantSubject: "oid-1",
		},
		{
			name:        "upn fallback",
			claims:      jwt.MapClaims{"upn": "upn@x.com", "oid": "oid-1"},
			wantEmail:   "upn@x.com",
			wantSubject: "oid-1",
		},
		{
			name:        "email fallback",
			claims:      jwt.MapClaims{"email": "email@x.com", "oid": "oid-1"},
			wantEmail:   "email@x.com",
			wantSubject: "oid-1",
		},
		{
			name:        "oid wins over sub",
			claims:      jwt.MapClaims{"upn": "u@x.com", "oid": "oid-1", "sub": "sub-1"},
			wantEmail:   "u@x.com",
			wantSubject: "oid-1",
		},
		{
			name:        "sub fallback",
			claims:      jwt.MapClaims{"upn": "u@x.com", "sub": "sub-1"},
			wantEmail:   "u@x.com",
			wantSubject: "sub-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(ctx, microsoftToken(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, identity.Email)
			assert.Equal(t, tt.wantSubject, identity.Subject)
		})
	}
}

func TestMicrosoftVerifier_Name(t *testing.T) {
	t.Parallel()

	v := NewMicrosoftVerifier()
	identity, err := v.Verify(context.Background(), microsoftToken(t, jwt.MapClaims{
		"upn": "u@x.com", "oid": "oid-1", "name": "Jane Doe",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", identity.Name)
}

func TestMicrosoftVerifier_MissingClaims(t *testing.T) {
	t.Parallel()

	v := NewMicrosoftVerifier()
	ctx := context.Background()

	// No email claim at all.
	_, err := v.Verify(ctx, microsoftToken(t, jwt.MapClaims{"oid": "oid-1"}))
	assert.Error(t, err)

	// No subject claim.
	_, err = v.Verify(ctx, microsoftToken(t, jwt.MapClaims{"upn": "u@x.com"}))
	assert.Error(t, err)

	// Empty strings do not count as present.
	_, err = v.Verify(ctx, microsoftToken(t, jwt.MapClaims{"upn": "", "oid": "oid-1"}))
	assert.Error(t, err)
}

func TestMicrosoftVerifier_MalformedToken(t *testing.T) {
	t.Parallel()

	v := NewMicrosoftVerifier()
	_, err := v.Verify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
