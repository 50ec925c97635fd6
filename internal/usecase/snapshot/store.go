package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/sm-nvws/limit-order-book/internal/domain/snapshot/v1"
	"github.com/sm-nvws/limit-order-book/pkg/errors"
	logger "github.com/sm-nvws/limit-order-book/pkg/logger"
	"github.com/sm-nvws/limit-order-book/pkg/redis"
)

const keyPrefix = "book:snapshot:"

// Store persists book snapshots in Redis, keyed by trading pair.
type Store struct {
	pair        string
	logger      *logger.Logger
	redisclient redis.Client
}

// NewSnapshotStore creates a new Store with the given Redis client and pair.
func NewSnapshotStore(redisclient redis.Client, pair string, logger *logger.Logger) *Store {
	return &Store{
		pair:        pair,
		redisclient: redisclient,
		logger:      logger,
	}
}

func (s *Store) key() string {
	return keyPrefix + s.pair
}

// Store stores the snapshot in Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return errors.NewTracer(string(errors.SnapshotMarshalError)).Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key(), buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return errors.NewTracer(string(errors.SnapshotStoreError)).Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for pair %s", s.pair), logger.Field{
		Key:   "pair",
		Value: s.pair,
	}, logger.Field{
		Key:   "orderCount",
		Value: len(snapshot.Orders),
	}, logger.Field{
		Key:   "offset",
		Value: snapshot.OrderOffset,
	})
	return nil
}

// Load loads the snapshot from Redis. A missing snapshot returns nil, nil.
func (s *Store) Load(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key())
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		}, logger.Field{
			Key:   "action",
			Value: "load snapshot",
		})
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for pair %s", s.pair), logger.Field{
			Key:   "pair",
			Value: s.pair,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "pair",
			Value: s.pair,
		}, logger.Field{
			Key:   "action",
			Value: "unmarshal snapshot",
		})
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}

	return &snapshot, nil
}
