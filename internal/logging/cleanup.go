package logging

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// StartCleanup runs a daily goroutine that deletes system_logs entries older
// than 30 days.
func StartCleanup(db *mongo.Database, done chan struct{}) {
	coll := db.Collection("system_logs")
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -30)
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				res, err := coll.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
				cancel()
				if err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if res.DeletedCount > 0 {
					slog.Info("log cleanup completed", "deleted", res.DeletedCount)
				}
			case <-done:
				return
			}
		}
	}()
}
