package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/onboard/event"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
)

// Collection name constants.
const (
	colInstances = "onboard_instances"
	colSteps     = "onboard_steps"
	colEvents    = "onboard_events"
	colStatus    = "onboard_status"
)

// Ensure Store implements all subsystem interfaces at compile time.
var (
	_ saga.Store   = (*Store)(nil)
	_ event.Store  = (*Store)(nil)
	_ status.Store = (*Store)(nil)
)

// Store is a grove ORM implementation of store.Store using MongoDB driver.
// The caller owns the *grove.DB lifecycle; Store never closes it.
type Store struct {
	db     *grove.DB
	mdb    *mongodriver.MongoDB
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new MongoDB store. The caller owns the db lifecycle -- the
// Store will not close it on Close().
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		mdb:    mongodriver.Unwrap(db),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *grove.DB for advanced usage.
func (s *Store) DB() *grove.DB {
	return s.db
}

// Migrate creates indexes for all onboarding collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}

		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("onboard/mongo: migrate %s indexes: %w", col, err)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op because the caller owns the *grove.DB lifecycle.
func (s *Store) Close() error {
	return nil
}

// ── helpers ──────────────────────────────────────────────────────

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "E11000")
}

// sleepCtx sleeps for the given duration, or returns early if the context
// is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// migrationIndexes returns the index definitions for all onboarding collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colInstances: {
			// Resumption sweep index.
			{Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "started_at", Value: 1},
			}},
			{Keys: bson.D{{Key: "kind", Value: 1}}},
			{Keys: bson.D{{Key: "subject_id", Value: 1}}},
		},
		colSteps: {
			// Unique compound index enforcing the append-only step log.
			{
				Keys:    bson.D{{Key: "instance_id", Value: 1}, {Key: "step_index", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colEvents: {
			// Pending events index for subscribe.
			{Keys: bson.D{
				{Key: "instance_id", Value: 1},
				{Key: "name", Value: 1},
				{Key: "acked", Value: 1},
				{Key: "created_at", Value: 1},
			}},
		},
		colStatus: {
			// In-progress lookup index for the idempotent upsert.
			{Keys: bson.D{
				{Key: "subject_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "status", Value: 1},
			}},
		},
	}
}
