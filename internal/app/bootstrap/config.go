// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: backend, mongo_uri, session_name, etc.
//   - Environment variables: PORTAL_BACKEND, PORTAL_MONGO_URI, etc.
//   - Command-line flags: --backend, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "backend", Default: backend.KindMongo, Desc: "Service backend: 'mongo' or 'supabase'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "meera_portal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "supabase_url", Default: "", Desc: "Supabase project URL (e.g., https://xyz.supabase.co)"},
	{Name: "supabase_anon_key", Default: "", Desc: "Supabase anon (public) API key"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "portal-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime"},
	{Name: "session_idle_timeout", Default: "12h", Desc: "Mongo backend: close sessions idle this long"},

	{Name: "interactions_limit", Default: 50, Desc: "Max interactions fetched per dashboard view"},
	{Name: "identity_wait", Default: "3s", Desc: "How long a dashboard request waits for identity before showing the loading page"},
	{Name: "interactions_wait", Default: "2s", Desc: "Extra time given to interactions once identity resolved (0 renders immediately)"},
	{Name: "fetch_timeout", Default: "10s", Desc: "Per-call backend timeout"},
	{Name: "display_timezone", Default: "UTC", Desc: "IANA timezone for rendered timestamps"},

	{Name: "login_ip_limit", Default: 10, Desc: "Sign-in attempts allowed per client IP per minute (0 disables)"},
	{Name: "login_email_limit", Default: 5, Desc: "Sign-in attempts allowed per account per five minutes (0 disables)"},

	{Name: "seed_email", Default: "", Desc: "Mongo backend: email of an account to create on startup"},
	{Name: "seed_password", Default: "", Desc: "Mongo backend: password for seed_email"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence
// flags > env > files > defaults (WAFFLE_* for core, PORTAL_* for app).
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PORTAL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		Backend: strings.ToLower(strings.TrimSpace(appValues.String("backend"))),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SupabaseURL:     strings.TrimSpace(appValues.String("supabase_url")),
		SupabaseAnonKey: strings.TrimSpace(appValues.String("supabase_anon_key")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),
		SessionIdle:   appValues.Duration("session_idle_timeout", 12*time.Hour),

		InteractionsLimit: appValues.Int("interactions_limit"),
		IdentityWait:      appValues.Duration("identity_wait", 3*time.Second),
		InteractionsWait:  appValues.Duration("interactions_wait", 2*time.Second),
		FetchTimeout:      appValues.Duration("fetch_timeout", 10*time.Second),
		DisplayTimezone:   appValues.String("display_timezone"),

		LoginIPLimit:    appValues.Int("login_ip_limit"),
		LoginEmailLimit: appValues.Int("login_email_limit"),

		SeedEmail:    strings.TrimSpace(appValues.String("seed_email")),
		SeedPassword: appValues.String("seed_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.Backend {
	case backend.KindMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if (appCfg.SeedEmail == "") != (appCfg.SeedPassword == "") {
			return errors.New("seed_email and seed_password must be set together")
		}
	case backend.KindSupabase:
		if appCfg.SupabaseURL == "" || appCfg.SupabaseAnonKey == "" {
			return errors.New("supabase backend requires supabase_url and supabase_anon_key")
		}
		u, err := url.Parse(appCfg.SupabaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid supabase_url %q", appCfg.SupabaseURL)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", appCfg.Backend, backend.KindMongo, backend.KindSupabase)
	}

	if appCfg.InteractionsLimit <= 0 {
		return fmt.Errorf("interactions_limit must be positive, got %d", appCfg.InteractionsLimit)
	}
	if appCfg.IdentityWait < 0 || appCfg.InteractionsWait < 0 || appCfg.FetchTimeout < 0 {
		return errors.New("identity_wait, interactions_wait and fetch_timeout must not be negative")
	}
	if appCfg.LoginIPLimit < 0 || appCfg.LoginEmailLimit < 0 {
		return errors.New("login_ip_limit and login_email_limit must not be negative")
	}
	if _, err := time.LoadLocation(appCfg.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid display_timezone %q: %w", appCfg.DisplayTimezone, err)
	}
	return nil
}
