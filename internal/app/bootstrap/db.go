// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureSchema creates the indexes the stores rely on. Index builds are
// idempotent; re-running on startup is safe.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email_ci", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"clubs": {
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"feedback": {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"club_posts": {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		"oauth_states": {
			{
				// TTL sweep; Validate also checks expiry so the lazy
				// deletion window cannot be exploited.
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
		"audit_log": {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			logger.Error("index creation failed",
				zap.String("collection", coll),
				zap.Error(err))
			return err
		}
	}

	logger.Info("schema ensured")
	return nil
}
