// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/meeralabs/portal/internal/app/resources"
	"github.com/meeralabs/portal/internal/app/store/sessions"
	userstore "github.com/meeralabs/portal/internal/app/store/users"
	"github.com/meeralabs/portal/internal/app/system/workers"
	"github.com/meeralabs/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// sessionCleanupInterval is how often the mongo backend sweeps idle sessions.
const sessionCleanupInterval = 5 * time.Minute

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if deps.MongoDatabase == nil {
		return nil
	}

	if appCfg.SeedEmail != "" {
		if err := ensureSeedUser(ctx, deps, appCfg.SeedEmail, appCfg.SeedPassword, logger); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
	}

	if deps.Workers != nil && appCfg.SessionIdle > 0 {
		w := workers.NewSessionCleanup(sessions.New(deps.MongoDatabase), logger, sessionCleanupInterval, appCfg.SessionIdle)
		w.Start()
		deps.Workers.SessionCleanup = w
	}
	return nil
}

// ensureSeedUser makes sure an active account exists for email. An existing
// account is re-enabled if needed; its password is left alone.
func ensureSeedUser(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := users.Create(ctx, email, password)
		if err != nil {
			return err
		}
		logger.Info("seed user created", zap.String("email", created.Email))
		return nil
	case err != nil:
		return err
	}

	if u.Status != models.UserStatusActive {
		if err := users.SetStatus(ctx, u.ID, models.UserStatusActive); err != nil {
			return err
		}
		logger.Info("seed user re-enabled", zap.String("email", u.Email))
		return nil
	}
	logger.Debug("seed user already present", zap.String("email", u.Email))
	return nil
}
