package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/meeralabs/portal/internal/app/store/interactions"
	"github.com/meeralabs/portal/internal/app/store/sessions"
	userstore "github.com/meeralabs/portal/internal/app/store/users"
	"github.com/meeralabs/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active user with the given credentials.
func (f *Fixtures) CreateUser(ctx context.Context, email, password string) models.User {
	f.t.Helper()

	u, err := userstore.New(f.db).Create(ctx, email, password)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateSession opens a session for userID and returns its token.
func (f *Fixtures) CreateSession(ctx context.Context, userID primitive.ObjectID) string {
	f.t.Helper()

	sess, err := sessions.New(f.db).Create(ctx, userID, "127.0.0.1", "go-test")
	if err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return sess.Token
}

// CreateInteractions inserts one interaction per content string, one minute
// apart, oldest first. Listing them newest first yields contents reversed.
func (f *Fixtures) CreateInteractions(ctx context.Context, userID primitive.ObjectID, contents ...string) []interactions.Record {
	f.t.Helper()

	store := interactions.New(f.db)
	base := time.Now().UTC().Add(-time.Duration(len(contents)) * time.Minute)
	out := make([]interactions.Record, 0, len(contents))
	for i, c := range contents {
		rec, err := store.Create(ctx, userID, c, base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			f.t.Fatalf("failed to create test interaction: %v", err)
		}
		out = append(out, rec)
	}
	return out
}
