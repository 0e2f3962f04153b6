package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/panelkit/panelkit/internal/dto"
	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/internal/store"
	"github.com/panelkit/panelkit/internal/token"
)

type fakeVerifier struct {
	identity *ProviderIdentity
	err      error
}

func (f *fakeVerifier) Verify(context.Context, string) (*ProviderIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func newTestService(users UserStore, verifiers map[store.Provider]TokenVerifier) (*AuthService, *token.Manager) {
	tokens := token.NewManager("test-secret", time.Hour)
	return NewAuthService(users, tokens, verifiers), tokens
}

func TestRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, tokens := newTestService(users, nil)

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Name: "Alice", Email: "alice@x.com", Password: "pw123456",
	})
	require.NoError(t, err)

	userID, err := tokens.Verify(resp.Access)
	require.NoError(t, err)

	stored := users.Get(userID)
	require.NotNil(t, stored)
	assert.Equal(t, "Alice", stored.Name)
	assert.Equal(t, "alice@x.com", stored.Email)
	require.True(t, stored.HasPassword())
	assert.NotEqual(t, "pw123456", *stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("pw123456")))
	assert.Nil(t, stored.GoogleID)
	assert.Nil(t, stored.MicrosoftID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(store.NewMemoryUserStore(), nil)

	req := &dto.RegisterRequest{Name: "Alice", Email: "alice@x.com", Password: "pw123456"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(store.NewMemoryUserStore(), nil)

	cases := []dto.RegisterRequest{
		{Email: "a@x.com", Password: "pw123456"},
		{Name: "A", Password: "pw123456"},
		{Name: "A", Email: "a@x.com", Password: "short"},
	}
	for _, req := range cases {
		_, err := svc.Register(ctx, &req)
		var vErr ValidationError
		assert.ErrorAs(t, err, &vErr, "request %+v", req)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, tokens := newTestService(users, nil)

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Alice", Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)
	registeredID, err := tokens.Verify(reg.Access)
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)
	loginID, err := tokens.Verify(resp.Access)
	require.NoError(t, err)
	assert.Equal(t, registeredID, loginID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, _ := newTestService(users, map[store.Provider]TokenVerifier{
		store.ProviderGoogle: &fakeVerifier{identity: &ProviderIdentity{Subject: "g-1", Email: "fed@x.com", Name: "Fed"}},
	})

	_, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Alice", Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)
	_, err = svc.FederatedLogin(ctx, store.ProviderGoogle, "provider-token")
	require.NoError(t, err)

	// Wrong password, unknown email, and federated-only account all get the
	// same error so responses never confirm whether an email is registered.
	cases := []dto.LoginRequest{
		{Email: "alice@x.com", Password: "wrongpass"},
		{Email: "nobody@x.com", Password: "pw123456"},
		{Email: "fed@x.com", Password: "pw123456"},
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, &req)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "request %+v", req)
	}
}

func TestFederatedLogin_CreatesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, tokens := newTestService(users, map[store.Provider]TokenVerifier{
		store.ProviderGoogle: &fakeVerifier{identity: &ProviderIdentity{Subject: "g-42", Email: "new@x.com", Name: "New User"}},
	})

	first, err := svc.FederatedLogin(ctx, store.ProviderGoogle, "tok-1")
	require.NoError(t, err)
	second, err := svc.FederatedLogin(ctx, store.ProviderGoogle, "tok-2")
	require.NoError(t, err)

	firstID, err := tokens.Verify(first.Access)
	require.NoError(t, err)
	secondID, err := tokens.Verify(second.Access)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)
	assert.Equal(t, 1, users.Count())

	stored := users.Get(firstID)
	require.NotNil(t, stored)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "g-42", *stored.GoogleID)
	assert.Equal(t, "New User", stored.Name)
	assert.False(t, stored.HasPassword())
}

func TestFederatedLogin_LinksByEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, tokens := newTestService(users, map[store.Provider]TokenVerifier{
		store.ProviderMicrosoft: &fakeVerifier{identity: &ProviderIdentity{Subject: "ms-7", Email: "alice@x.com"}},
	})

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Alice", Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)
	registeredID, err := tokens.Verify(reg.Access)
	require.NoError(t, err)

	resp, err := svc.FederatedLogin(ctx, store.ProviderMicrosoft, "ms-token")
	require.NoError(t, err)
	fedID, err := tokens.Verify(resp.Access)
	require.NoError(t, err)

	// Linked to the existing credential account, no twin record.
	assert.Equal(t, registeredID, fedID)
	assert.Equal(t, 1, users.Count())

	stored := users.Get(registeredID)
	require.NotNil(t, stored.MicrosoftID)
	assert.Equal(t, "ms-7", *stored.MicrosoftID)
	assert.True(t, stored.HasPassword())

	// Password login still works after linking.
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@x.com", Password: "pw123456"})
	assert.NoError(t, err)
}

func TestFederatedLogin_DefaultsName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, tokens := newTestService(users, map[store.Provider]TokenVerifier{
		store.ProviderGoogle: &fakeVerifier{identity: &ProviderIdentity{Subject: "g-9", Email: "bob@x.com"}},
	})

	resp, err := svc.FederatedLogin(ctx, store.ProviderGoogle, "tok")
	require.NoError(t, err)
	userID, err := tokens.Verify(resp.Access)
	require.NoError(t, err)

	assert.Equal(t, "bob", users.Get(userID).Name)
}

func TestFederatedLogin_InvalidToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(store.NewMemoryUserStore(), map[store.Provider]TokenVerifier{
		store.ProviderGoogle: &fakeVerifier{err: errors.New("signature verification failed")},
	})

	_, err := svc.FederatedLogin(ctx, store.ProviderGoogle, "bad-token")
	assert.ErrorIs(t, err, ErrInvalidProviderToken)

	_, err = svc.FederatedLogin(ctx, store.ProviderGoogle, "")
	var vErr ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// racingStore makes every first insert lose: a competing record with the
// same email lands just before, so Insert reports a duplicate and the
// service has to converge on the competitor.
type racingStore struct {
	*store.MemoryUserStore
	competitor *models.User
	once       sync.Once
}

func (r *racingStore) Insert(ctx context.Context, user *models.User) error {
	r.once.Do(func() {
		_ = r.MemoryUserStore.Insert(ctx, r.competitor)
	})
	return r.MemoryUserStore.Insert(ctx, user)
}

func TestFederatedLogin_DuplicateInsertConverges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := store.NewMemoryUserStore()
	users := &racingStore{
		MemoryUserStore: inner,
		competitor: &models.User{
			ID:        "competitor-id",
			Name:      "New User",
			Email:     "new@x.com",
			CreatedAt: time.Now().UTC(),
		},
	}
	svc, tokens := newTestService(users, map[store.Provider]TokenVerifier{
		store.ProviderGoogle: &fakeVerifier{identity: &ProviderIdentity{Subject: "g-42", Email: "new@x.com"}},
	})

	resp, err := svc.FederatedLogin(ctx, store.ProviderGoogle, "tok")
	require.NoError(t, err)

	userID, err := tokens.Verify(resp.Access)
	require.NoError(t, err)
	assert.Equal(t, "competitor-id", userID)
	assert.Equal(t, 1, inner.Count())

	stored := inner.Get("competitor-id")
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "g-42", *stored.GoogleID)
}

func TestFederatedLogin_ConcurrentFirstLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := store.NewMemoryUserStore()
	svc, tokens := newTestService(users, map[store.Provider]TokenVerifier{
		store.ProviderGoogle: &fakeVerifier{identity: &ProviderIdentity{Subject: "g-42", Email: "new@x.com"}},
	})

	const calls = 2
	ids := make([]string, calls)
	errs := make([]error, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.FederatedLogin(ctx, store.ProviderGoogle, "tok")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i], errs[i] = tokens.Verify(resp.Access)
		}(i)
	}
	wg.Wait()

	for i := 0; i < calls; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, 1, users.Count())

	stored := users.Get(ids[0])
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "g-42", *stored.GoogleID)
}
