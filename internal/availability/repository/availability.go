package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/pkg/config"
	mongotx "masterbook/pkg/db/mongo"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availability_profiles"
)

type AvailabilityRepository interface {
	FindByMasterID(ctx context.Context, masterID string) (*model.AvailabilityProfile, error)
	Upsert(ctx context.Context, update *model.AvailabilityUpdate) error
}

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAvailabilityRepository) FindByMasterID(ctx context.Context, masterID string) (*model.AvailabilityProfile, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var profile model.AvailabilityProfile
	err := r.collection.FindOne(ctx, bson.M{"master_id": masterID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find availability profile: %w", err)
	}

	normalize(&profile)
	return &profile, nil
}

// Upsert sets the provided fields and creates the profile with empty defaults
// for the rest on first write.
func (r *mongoAvailabilityRepository) Upsert(ctx context.Context, update *model.AvailabilityUpdate) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set, setOnInsert := buildUpsert(update, time.Now().UTC().Truncate(time.Millisecond))

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"master_id": update.MasterID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert availability profile: %w", err)
	}
	return nil
}

func buildUpsert(update *model.AvailabilityUpdate, now time.Time) (bson.M, bson.M) {
	set := bson.M{"updated_at": now}
	setOnInsert := bson.M{}

	if update.Weekly != nil {
		set["weekly"] = update.Weekly
	} else {
		setOnInsert["weekly"] = model.WeeklyTemplate{}
	}
	if update.DaysOff != nil {
		set["days_off"] = update.DaysOff
	} else {
		setOnInsert["days_off"] = []string{}
	}
	if update.Blocks != nil {
		set["blocks"] = update.Blocks
	} else {
		setOnInsert["blocks"] = []model.DateBlock{}
	}

	return set, setOnInsert
}

// normalize rewrites legacy stored shapes (weekday names as keys, missing
// fields) into the canonical form.
func normalize(p *model.AvailabilityProfile) {
	weekly := make(model.WeeklyTemplate, len(p.Weekly))
	for key, windows := range p.Weekly {
		if day, err := timerange.ParseWeekday(key); err == nil {
			key = strconv.Itoa(int(day))
		}
		weekly[key] = append(weekly[key], windows...)
	}
	p.Weekly = weekly

	if p.DaysOff == nil {
		p.DaysOff = []string{}
	}
	if p.Blocks == nil {
		p.Blocks = []model.DateBlock{}
	}
}
