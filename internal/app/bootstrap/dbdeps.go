// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// The Mongo handles are nil when the supabase backend is selected.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Backend backend.Backend
	Metrics *metrics.Metrics

	// Workers is shared by pointer so Startup and Shutdown see the same set.
	Workers *Workers
}

// Workers tracks background workers started in Startup.
type Workers struct {
	SessionCleanup *workers.SessionCleanup
}
