// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/meeralabs/portal/internal/app/store/interactions"
	"github.com/meeralabs/portal/internal/app/store/sessions"
	userstore "github.com/meeralabs/portal/internal/app/store/users"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/timeouts"
	"github.com/meeralabs/portal/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB builds the selected backend. For mongo it dials and pings the
// server; for supabase it only constructs the HTTP adapter.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{
		Metrics: metrics.New(),
		Workers: &Workers{},
	}
	// Sign-in and sign-out share the dashboard's per-call budget.
	timeouts.Configure(timeouts.Budgets{Short: appCfg.FetchTimeout})

	switch appCfg.Backend {
	case backend.KindSupabase:
		be, err := backend.NewSupabase(appCfg.SupabaseURL, appCfg.SupabaseAnonKey, appCfg.InteractionsLimit,
			&http.Client{Timeout: appCfg.FetchTimeout})
		if err != nil {
			return DBDeps{}, fmt.Errorf("supabase backend: %w", err)
		}
		deps.Backend = be
		logger.Info("using supabase backend", zap.String("url", appCfg.SupabaseURL))
		return deps, nil

	default:
		opts := options.Client().ApplyURI(appCfg.MongoURI)
		if appCfg.MongoMaxPoolSize > 0 {
			opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
		}
		if appCfg.MongoMinPoolSize > 0 {
			opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
		}

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
		}
		pingCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), logger, "mongo ping")
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
		}

		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		mb := backend.NewMongo(db, int64(appCfg.InteractionsLimit))
		mb.Log = logger
		deps.Backend = mb
		logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
		return deps, nil
	}
}

// EnsureSchema creates the collections, their validators and indexes (mongo backend only).
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	db := deps.MongoDatabase

	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return fmt.Errorf("ensure validators: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"sessions", sessions.New(db).EnsureIndexes},
		{"interactions", interactions.New(db).EnsureIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", s.name), zap.Error(err))
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}
	logger.Info("schema ensured")
	return nil
}
