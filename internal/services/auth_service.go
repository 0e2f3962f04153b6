package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/panelkit/panelkit/internal/dto"
	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/internal/store"
	"github.com/panelkit/panelkit/internal/token"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidProviderToken = errors.New("invalid or expired provider token")
)

// ValidationError marks client-correctable input problems; handlers surface
// its message verbatim with a 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// UserStore is the credential-store surface the auth service needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByProviderSubject(ctx context.Context, provider store.Provider, subject string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	AttachProviderSubject(ctx context.Context, userID string, provider store.Provider, subject string) error
}

type AuthService struct {
	users     UserStore
	tokens    *token.Manager
	verifiers map[store.Provider]TokenVerifier
}

func NewAuthService(users UserStore, tokens *token.Manager, verifiers map[store.Provider]TokenVerifier) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		verifiers: verifiers,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return nil, ValidationError("name and email are required and password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hash)
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hashStr,
		CreatedAt:    time.Now().UTC(),
	}

	// The unique index on email decides the duplicate case, so a racing
	// second registration fails here rather than creating a twin record.
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueSession(user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ValidationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same outcome as a wrong password: do not confirm whether the
			// email is registered.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasPassword() {
		// Federated-only account.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

func (s *AuthService) FederatedLogin(ctx context.Context, provider store.Provider, rawToken string) (*dto.AuthResponse, error) {
	if rawToken == "" {
		return nil, ValidationError("token is required")
	}

	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, fmt.Errorf("no verifier configured for provider %q", provider)
	}

	identity, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		slog.Error("provider token verification failed", "provider", provider, "error", err)
		return nil, ErrInvalidProviderToken
	}

	user, err := s.upsertFederated(ctx, provider, identity)
	if err != nil {
		return nil, err
	}

	return s.issueSession(user)
}

// federatedMatch is the outcome of resolving a verified provider identity
// against the store.
type federatedMatch int

const (
	matchNone federatedMatch = iota
	matchBySubject
	matchByEmailNeedsLink
)

func (s *AuthService) findFederated(ctx context.Context, provider store.Provider, identity *ProviderIdentity) (*models.User, federatedMatch, error) {
	user, err := s.users.FindByProviderSubject(ctx, provider, identity.Subject)
	if err == nil {
		return user, matchBySubject, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, matchNone, fmt.Errorf("failed to look up user by subject: %w", err)
	}

	if identity.Email == "" {
		// Email is the natural key for linking and creation; a first login
		// without one cannot resolve to an account.
		slog.Error("provider token carries no email", "provider", provider)
		return nil, matchNone, ErrInvalidProviderToken
	}

	user, err = s.users.FindByEmail(ctx, identity.Email)
	if err == nil {
		return user, matchByEmailNeedsLink, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, matchNone, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return nil, matchNone, nil
}

// upsertFederated resolves the verified identity to exactly one user record:
// found by subject id, found by email (attach the subject id), or created.
// Creation is insert-first; losing the race to a concurrent first login
// surfaces as a duplicate email, which converges on the existing record.
func (s *AuthService) upsertFederated(ctx context.Context, provider store.Provider, identity *ProviderIdentity) (*models.User, error) {
	user, match, err := s.findFederated(ctx, provider, identity)
	if err != nil {
		return nil, err
	}

	switch match {
	case matchBySubject:
		return user, nil
	case matchByEmailNeedsLink:
		if err := s.users.AttachProviderSubject(ctx, user.ID, provider, identity.Subject); err != nil {
			return nil, err
		}
		return user, nil
	}

	user = &models.User{
		ID:        uuid.NewString(),
		Name:      displayName(identity),
		Email:     identity.Email,
		CreatedAt: time.Now().UTC(),
	}
	setProviderSubject(user, provider, identity.Subject)

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			existing, ferr := s.users.FindByEmail(ctx, identity.Email)
			if ferr != nil {
				return nil, fmt.Errorf("failed to re-fetch user after duplicate insert: %w", ferr)
			}
			if err := s.users.AttachProviderSubject(ctx, existing.ID, provider, identity.Subject); err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueSession(user *models.User) (*dto.AuthResponse, error) {
	access, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &dto.AuthResponse{Access: access}, nil
}

func setProviderSubject(user *models.User, provider store.Provider, subject string) {
	switch provider {
	case store.ProviderGoogle:
		user.GoogleID = &subject
	case store.ProviderMicrosoft:
		user.MicrosoftID = &subject
	}
}

func displayName(identity *ProviderIdentity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return strings.Split(identity.Email, "@")[0]
}
