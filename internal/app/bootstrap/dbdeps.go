// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"github.com/dalemusser/roomshare/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the process-wide backing stores. The Mongo handles and the
// retention worker are nil when no audit database is configured. The form
// limiters are in-memory stores with their own sweepers, so they live here
// to be stopped in Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	FormLimiter    *ratelimit.FormLimiter
	AuditRetention *workers.AuditRetention
}
