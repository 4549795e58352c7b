// internal/app/store/interactions/store.go
package interactions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/meeralabs/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errEmptyContent = errors.New("interaction content is required")

// Record is an interaction as stored in MongoDB.
type Record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Content   string             `bson:"content"`
	Timestamp time.Time          `bson:"timestamp"`
}

// Model converts the stored record to the backend-neutral domain type.
func (r Record) Model() models.Interaction {
	return models.Interaction{
		ID:        r.ID.Hex(),
		Content:   r.Content,
		Timestamp: r.Timestamp,
	}
}

// Store manages interaction records.
type Store struct {
	c *mongo.Collection
}

// New creates a new interactions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("interactions")}
}

// EnsureIndexes creates the per-user timeline index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("idx_interactions_user_time"),
	})
	return err
}

// Create records an interaction. A zero timestamp means now.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, content string, ts time.Time) (Record, error) {
	if strings.TrimSpace(content) == "" {
		return Record{}, errEmptyContent
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	rec := Record{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Content:   content,
		Timestamp: ts.UTC(),
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByUser returns up to limit interactions for a user, newest first.
// Ties on timestamp fall back to insertion order (newest _id first).
// limit <= 0 means no limit.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Interaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}

	out := make([]models.Interaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Model())
	}
	return out, nil
}
