package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	availabilityrepo "masterbook/internal/availability/repository"
	bookingsrepo "masterbook/internal/bookings/repository"
	chatsrepo "masterbook/internal/chats/repository"
	"masterbook/internal/migrations/mongo/validators"
	"masterbook/pkg/logger"
)

type CollectionSpec struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	AvailabilityIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "master_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "master_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "master_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "client_id", Value: 1},
			{Key: "date", Value: 1},
		}},
	}

	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	ChatsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "participants", Value: 1}}},
	}

	MessagesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "chat_id", Value: 1},
			{Key: "created_at", Value: 1},
		}},
	}
)

// Collections lists every collection the services rely on, in creation order.
func Collections() []CollectionSpec {
	return []CollectionSpec{
		{Name: availabilityrepo.CollectionName, Indexes: AvailabilityIndexes, Validator: validators.AvailabilityValidator},
		{Name: bookingsrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: bookingsrepo.LockCollectionName, Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
		{Name: chatsrepo.ChatsCollectionName, Indexes: ChatsIndexes, Validator: validators.ChatValidator},
		{Name: chatsrepo.MessagesCollectionName, Indexes: MessagesIndexes, Validator: validators.MessageValidator},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, coll := range Collections() {
		if err := ensureCollection(ctx, db, coll.Name, coll.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", coll.Name, err)
		}
		if err := ensureIndexes(ctx, db, coll.Name, coll.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", coll.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
