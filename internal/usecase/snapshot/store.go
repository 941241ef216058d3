package snapshot

import (
	"context"
	"encoding/json"

	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
	"github.com/kingbirdogd/matching-sample/pkg/errors"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	"github.com/kingbirdogd/matching-sample/pkg/redis"
)

// Store persists engine snapshots in Redis under a single key.
type Store struct {
	key         string
	logger      *logger.Logger
	redisclient redis.Client
}

// NewSnapshotStore creates a snapshot store writing to the given Redis key.
func NewSnapshotStore(redisclient redis.Client, key string, logger *logger.Logger) *Store {
	return &Store{
		key:         key,
		redisclient: redisclient,
		logger:      logger,
	}
}

// Store serializes the snapshot and stores it in Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "key",
			Value: s.key,
		})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "key",
			Value: s.key,
		})
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, "Snapshot stored",
		logger.Field{Key: "key", Value: s.key},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		logger.Field{Key: "books", Value: len(snapshot.Books)},
	)
	return nil
}

// LoadStore loads the snapshot from Redis. A missing snapshot returns nil
// without error.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "key",
			Value: s.key,
		})
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, "No snapshot found", logger.Field{
			Key:   "key",
			Value: s.key,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "key",
			Value: s.key,
		})
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
