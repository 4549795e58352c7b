package validators_test

import (
	"testing"
	"time"

	"github.com/meeralabs/portal/internal/app/system/validators"
	"github.com/meeralabs/portal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, want := range validators.Collections {
		if !have[want] {
			t.Errorf("collection %q was not created", want)
		}
	}
}

func TestEnsureAll_RejectsBlankInteraction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("interactions").InsertOne(ctx, bson.M{
		"user_id":   primitive.NewObjectID(),
		"content":   "   ",
		"timestamp": time.Now(),
	})
	if err == nil {
		t.Error("expected validator to reject blank content")
	}

	_, err = db.Collection("interactions").InsertOne(ctx, bson.M{
		"user_id":   primitive.NewObjectID(),
		"content":   "hello",
		"timestamp": time.Now(),
	})
	if err != nil {
		t.Errorf("valid interaction rejected: %v", err)
	}
}
