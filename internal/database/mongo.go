package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/panelkit/panelkit/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	retryAttempts  = 3
	retryInterval  = 5 * time.Second
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

// Connect establishes the MongoDB connection with a small retry loop so a
// server restarting alongside the database comes up cleanly.
func Connect(ctx context.Context, cfg *config.Config) error {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.MongoURI).
				SetConnectTimeout(connectTimeout).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				Client = client
				DB = client.Database(cfg.MongoDBName)
				slog.Info("database connected", "db", cfg.MongoDBName)
				return nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err
		time.Sleep(retryInterval)
	}
	return fmt.Errorf("failed to connect to mongodb: %w", lastErr)
}

// EnsureIndexes creates the indexes the application relies on. The unique
// index on users.email is load-bearing: it is the only backstop against
// duplicate records when two federated logins for the same new identity
// race (see store.UserStore.Insert).
func EnsureIndexes(ctx context.Context) error {
	users := DB.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "google_id", Value: 1}}},
		{Keys: bson.D{{Key: "microsoft_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	logs := DB.Collection("system_logs")
	if _, err := logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "level", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create log indexes: %w", err)
	}
	return nil
}

func Ping(ctx context.Context) error {
	if Client == nil {
		return fmt.Errorf("database not connected")
	}
	return Client.Ping(ctx, nil)
}

func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
