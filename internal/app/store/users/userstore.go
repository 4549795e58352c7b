package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/meeralabs/portal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrBadCredentials is returned by Authenticate for an unknown email, a wrong
	// password or a disabled account. Callers cannot tell which.
	ErrBadCredentials = errors.New("invalid email or password")

	errEmailRequired    = errors.New("email is required")
	errPasswordRequired = errors.New("password is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_ci", Value: 1}},
		Options: options.Index().SetName("uniq_users_email_ci").SetUnique(true),
	})
	return err
}

// Create inserts a new active user with a bcrypt hash of password.
func (s *Store) Create(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, errEmailRequired
	}
	if password == "" {
		return models.User{}, errPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate returns the active user matching email and password.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !u.IsActive() {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// SetStatus updates the account status ("active" or "disabled").
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
