package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// End reasons recorded when a session is closed.
const (
	EndReasonLogout   = "logout"
	EndReasonInactive = "inactive"
)

// ErrNotFound is returned when no open session matches a token.
var ErrNotFound = errors.New("session not found or already closed")

// Session is a signed-in browser session of the self-hosted backend.
// Token is the opaque bearer value handed to the browser cookie.
type Session struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Token  string             `bson:"token"`
	UserID primitive.ObjectID `bson:"user_id"`

	// Timing
	LoginAt      time.Time  `bson:"login_at"`
	LogoutAt     *time.Time `bson:"logout_at,omitempty"`
	LastActiveAt time.Time  `bson:"last_active_at"`

	EndReason string `bson:"end_reason,omitempty"` // "logout", "inactive", ""

	// Context
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`
}

// Open reports whether the session has not been closed.
func (s Session) Open() bool {
	return s.LogoutAt == nil
}

// Store manages backend sessions.
type Store struct {
	c *mongo.Collection
}

// New creates a new sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("uniq_sessions_token").SetUnique(true),
		},
		// Idle sweep
		{
			Keys:    bson.D{{Key: "logout_at", Value: 1}, {Key: "last_active_at", Value: -1}},
			Options: options.Index().SetName("idx_sessions_active"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "login_at", Value: -1}},
			Options: options.Index().SetName("idx_sessions_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create opens a new session for a user and returns it with a fresh token.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, ip, userAgent string) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:           primitive.NewObjectID(),
		Token:        uuid.NewString(),
		UserID:       userID,
		LoginAt:      now,
		LastActiveAt: now,
		IP:           ip,
		UserAgent:    userAgent,
	}

	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// GetOpen returns the open session for token, or ErrNotFound.
func (s *Store) GetOpen(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"token": token, "logout_at": nil}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, ErrNotFound
	}
	return sess, err
}

// Touch bumps last_active_at on an open session. Closed or unknown tokens are ignored.
func (s *Store) Touch(ctx context.Context, token string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"token": token, "logout_at": nil},
		bson.M{"$set": bson.M{"last_active_at": time.Now().UTC()}},
	)
	return err
}

// Close ends the open session for token with the given reason.
// Returns ErrNotFound when there is no open session to close.
func (s *Store) Close(ctx context.Context, token, reason string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"token": token, "logout_at": nil},
		bson.M{"$set": bson.M{"logout_at": now, "end_reason": reason}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseInactive closes open sessions idle for longer than threshold.
func (s *Store) CloseInactive(ctx context.Context, threshold time.Duration) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"logout_at":      nil,
			"last_active_at": bson.M{"$lt": now.Add(-threshold)},
		},
		bson.M{"$set": bson.M{"logout_at": now, "end_reason": EndReasonInactive}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
