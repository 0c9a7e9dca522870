// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/roomshare/internal/app/store/audit"
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"github.com/dalemusser/roomshare/internal/app/system/timeouts"
	"github.com/dalemusser/roomshare/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the optional audit database and the form limiters.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{
		FormLimiter: ratelimit.NewFormLimiter(appCfg.LoginRateLimit, appCfg.LoginRateLimit, appCfg.LoginRateWindow),
	}

	if !appCfg.AuditEnabled() {
		logger.Info("mongo_uri not set; audit events go to the log only")
		return deps, nil
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("roomshare"))
	if err != nil {
		deps.FormLimiter.Close()
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		deps.FormLimiter.Close()
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	if appCfg.AuditRetention > 0 {
		deps.AuditRetention = workers.NewAuditRetention(audit.New(deps.MongoDatabase), logger, time.Hour, appCfg.AuditRetention)
	}
	return deps, nil
}

// EnsureSchema creates the audit indexes when the audit database is enabled.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	if err := audit.New(deps.MongoDatabase).EnsureIndexes(ctx); err != nil {
		logger.Error("audit index creation failed", zap.Error(err))
		return fmt.Errorf("ensure audit indexes: %w", err)
	}
	return nil
}
