package repository

import (
	"context"
	"fmt"
	"time"

	"masterbook/pkg/config"
	mongotx "masterbook/pkg/db/mongo"
	"masterbook/pkg/lock"
	"masterbook/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Booking_locks"
)

// mongoSchedulingLocker keeps one advisory document per scheduling domain in
// Booking_locks. The unique _id makes a second insert fail with a duplicate
// key error while the first holder is alive; expired documents are reaped on
// the next attempt and by the TTL index.
type mongoSchedulingLocker struct {
	cfg        *config.Config
	collection *mongo.Collection
	opts       lock.Options
}

func NewMongoSchedulingLocker(cfg *config.Config) lock.Locker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSchedulingLocker{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		opts: lock.Options{
			TTL:           cfg.LockTTL,
			Wait:          cfg.LockWaitTimeout,
			RetryInterval: cfg.LockRetryInterval,
		},
	}
}

func (l *mongoSchedulingLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	return lock.Poll(ctx, l.opts, func(ctx context.Context) (lock.Release, bool, error) {
		return l.try(ctx, key)
	})
}

func (l *mongoSchedulingLocker) try(ctx context.Context, key string) (lock.Release, bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": now}}); err != nil {
		return nil, false, fmt.Errorf("failed to reap expired lock: %w", err)
	}

	doc := model.SchedulingLock{
		ID:        key,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(l.opts.TTL),
		CreatedAt: now,
	}
	if _, err := l.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to create lock: %w", err)
	}

	return lock.Once(func(ctx context.Context) error {
		ctx, cancel := mongotx.WithTimeout(context.WithoutCancel(ctx), l.cfg.WriteTimeout)
		defer cancel()
		_, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "token": doc.Token})
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}), true, nil
}
