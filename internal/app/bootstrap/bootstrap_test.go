package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/domain/models"
	"github.com/meeralabs/portal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		Backend:           backend.KindMongo,
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "meera_portal",
		InteractionsLimit: 50,
		IdentityWait:      3 * time.Second,
		InteractionsWait:  2 * time.Second,
		FetchTimeout:      10 * time.Second,
		DisplayTimezone:   "UTC",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid mongo", func(c *AppConfig) {}, ""},
		{"valid supabase", func(c *AppConfig) {
			c.Backend = backend.KindSupabase
			c.SupabaseURL = "https://xyz.supabase.co"
			c.SupabaseAnonKey = "anon"
		}, ""},
		{"unknown backend", func(c *AppConfig) { c.Backend = "firebase" }, "unknown backend"},
		{"supabase missing key", func(c *AppConfig) {
			c.Backend = backend.KindSupabase
			c.SupabaseURL = "https://xyz.supabase.co"
		}, "supabase_anon_key"},
		{"supabase bad url", func(c *AppConfig) {
			c.Backend = backend.KindSupabase
			c.SupabaseURL = "not a url"
			c.SupabaseAnonKey = "anon"
		}, "invalid supabase_url"},
		{"zero limit", func(c *AppConfig) { c.InteractionsLimit = 0 }, "interactions_limit"},
		{"negative wait", func(c *AppConfig) { c.InteractionsWait = -time.Second }, "must not be negative"},
		{"bad timezone", func(c *AppConfig) { c.DisplayTimezone = "Mars/Olympus" }, "display_timezone"},
		{"negative login limit", func(c *AppConfig) { c.LoginIPLimit = -1 }, "login_ip_limit"},
		{"seed half set", func(c *AppConfig) { c.SeedEmail = "a@b.c" }, "seed_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %v, want one containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureSeedUser_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSeedUser(ctx, deps, "seed@test.com", "seed-password", testLogger()); err != nil {
		t.Fatalf("ensureSeedUser failed: %v", err)
	}

	be := backend.NewMongo(db, 10)
	if _, err := be.SignIn(ctx, "seed@test.com", "seed-password"); err != nil {
		t.Errorf("seed user cannot sign in: %v", err)
	}
}

func TestEnsureSeedUser_ReenablesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	u := fixtures.CreateUser(ctx, "seed@test.com", "original-password")
	if _, err := db.Collection("users").UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{"status": models.UserStatusDisabled},
	}); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSeedUser(ctx, deps, "seed@test.com", "other-password", testLogger()); err != nil {
		t.Fatalf("ensureSeedUser failed: %v", err)
	}

	be := backend.NewMongo(db, 10)
	if _, err := be.SignIn(ctx, "seed@test.com", "original-password"); err != nil {
		t.Errorf("expected re-enabled user to keep its password: %v", err)
	}
}

func TestEnsureSchema_SupabaseIsNoop(t *testing.T) {
	if err := EnsureSchema(context.Background(), nil, validConfig(), DBDeps{}, testLogger()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnsureSchema_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := EnsureSchema(ctx, nil, validConfig(), DBDeps{MongoDatabase: db}, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Running twice must be safe.
	if err := EnsureSchema(ctx, nil, validConfig(), DBDeps{MongoDatabase: db}, testLogger()); err != nil {
		t.Fatalf("EnsureSchema (second run): %v", err)
	}
}
