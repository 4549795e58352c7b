package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/meeralabs/portal/internal/app/store/interactions"
	"github.com/meeralabs/portal/internal/app/store/sessions"
	userstore "github.com/meeralabs/portal/internal/app/store/users"
	"github.com/meeralabs/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Mongo is the self-hosted backend: users, sessions and interactions live in
// the portal's own MongoDB database.
type Mongo struct {
	db           *mongo.Database
	users        *userstore.Store
	sessions     *sessions.Store
	interactions *interactions.Store
	limit        int64

	// Log receives non-fatal store errors. NewMongo sets a no-op logger.
	Log *zap.Logger
}

// NewMongo builds the adapter. limit caps FetchInteractions (<= 0 means no cap).
func NewMongo(db *mongo.Database, limit int64) *Mongo {
	return &Mongo{
		db:           db,
		users:        userstore.New(db),
		sessions:     sessions.New(db),
		interactions: interactions.New(db),
		limit:        limit,
		Log:          zap.NewNop(),
	}
}

func (m *Mongo) Name() string { return KindMongo }

// SignIn checks the password and opens a session whose token is the bearer value.
func (m *Mongo) SignIn(ctx context.Context, email, password string) (*oauth2.Token, error) {
	u, err := m.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	info := ClientInfoFrom(ctx)
	sess, err := m.sessions.Create(ctx, u.ID, info.IP, info.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}, nil
}

func (m *Mongo) Client(token string) Client {
	return &mongoClient{m: m, token: token}
}

func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

type mongoClient struct {
	m     *Mongo
	token string
}

func (c *mongoClient) session(ctx context.Context) (sessions.Session, error) {
	if c.token == "" {
		return sessions.Session{}, ErrNoSession
	}
	sess, err := c.m.sessions.GetOpen(ctx, c.token)
	if errors.Is(err, sessions.ErrNotFound) {
		return sessions.Session{}, ErrNoSession
	}
	if err != nil {
		return sessions.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (c *mongoClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	sess, err := c.session(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u, err := c.m.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive() {
		return nil, nil
	}

	// A failed touch only delays idle cleanup; the identity is still good.
	if err := c.m.sessions.Touch(ctx, c.token); err != nil {
		c.m.Log.Warn("session touch failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	return &models.Identity{ID: u.ID.Hex(), Email: u.Email}, nil
}

func (c *mongoClient) SignOut(ctx context.Context) error {
	if c.token == "" {
		return ErrNoSession
	}
	err := c.m.sessions.Close(ctx, c.token, sessions.EndReasonLogout)
	if errors.Is(err, sessions.ErrNotFound) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (c *mongoClient) FetchInteractions(ctx context.Context) ([]models.Interaction, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.m.interactions.ListByUser(ctx, sess.UserID, c.m.limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return out, nil
}
