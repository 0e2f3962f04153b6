package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/panelkit/panelkit/internal/models"
)

// Provider identifies a federated identity provider.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// subjectField maps a provider to the document field holding its subject id.
func (p Provider) subjectField() string {
	switch p {
	case ProviderGoogle:
		return "google_id"
	case ProviderMicrosoft:
		return "microsoft_id"
	}
	return ""
}

// UserStore is the credential store backed by the users collection.
type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection("users")}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindByProviderSubject(ctx context.Context, provider Provider, subject string) (*models.User, error) {
	field := provider.subjectField()
	if field == "" {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	return s.findOne(ctx, bson.M{field: subject})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// Insert creates the user record. A unique-index violation on email is
// surfaced as ErrDuplicateEmail so callers can re-fetch by email and proceed
// with the existing record instead of failing the request.
func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// AttachProviderSubject sets the provider subject id on an existing record,
// only if that field is still unset. Linking is one-way: a concurrent
// request that already attached the id makes this a no-op, and nothing ever
// clears it.
func (s *UserStore) AttachProviderSubject(ctx context.Context, userID string, provider Provider, subject string) error {
	field := provider.subjectField()
	if field == "" {
		return fmt.Errorf("unknown provider %q", provider)
	}

	filter := bson.M{"_id": userID, field: bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{field: subject}}
	if _, err := s.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to link %s subject: %w", provider, err)
	}
	return nil
}
