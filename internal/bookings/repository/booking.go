package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "masterbook/internal/bookings/errors"
	"masterbook/internal/bookings/lifecycle"
	"masterbook/pkg/config"
	mongotx "masterbook/pkg/db/mongo"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// FindActiveByMasterAndDate returns the pending and confirmed bookings that
	// occupy the provider's calendar on date. It fails with
	// ErrScanLimitExceeded rather than return a truncated day.
	FindActiveByMasterAndDate(ctx context.Context, masterID string, date timerange.Date) ([]*model.Booking, error)
	// FindActiveOverlapping returns every active booking on date whose window
	// intersects window.
	FindActiveOverlapping(ctx context.Context, masterID string, date timerange.Date, window timerange.Interval) ([]*model.Booking, error)
	FindByMasterAndDate(ctx context.Context, masterID string, date *timerange.Date, limit int, offset int64) ([]*model.Booking, error)
	CountByMasterAndDate(ctx context.Context, masterID string, date *timerange.Date) (int64, error)
	// UpdateStatus moves the booking to status only if it is still in expected.
	UpdateStatus(ctx context.Context, id string, expected, status model.BookingStatus) (*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := ValidateID(id); err != nil {
		return nil, err
	}

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindActiveByMasterAndDate(ctx context.Context, masterID string, date timerange.Date) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "time", Value: 1}}).
		SetLimit(int64(r.cfg.MaxBookingsPerDayScan) + 1)

	bookings, err := r.findActive(ctx, activeFilter(masterID, date), opts)
	if err != nil {
		return nil, err
	}
	if err := checkScanLimit(bookings, r.cfg.MaxBookingsPerDayScan); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *mongoBookingRepository) FindActiveOverlapping(
	ctx context.Context,
	masterID string,
	date timerange.Date,
	window timerange.Interval,
) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})
	return r.findActive(ctx, overlapFilter(masterID, date, window), opts)
}

func (r *mongoBookingRepository) findActive(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) FindByMasterAndDate(
	ctx context.Context,
	masterID string,
	date *timerange.Date,
	limit int, offset int64,
) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, masterFilter(masterID, date), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) CountByMasterAndDate(ctx context.Context, masterID string, date *timerange.Date) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, masterFilter(masterID, date))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, expected, status model.BookingStatus) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := ValidateID(id); err != nil {
		return nil, err
	}

	filter := bson.M{"_id": id, "status": expected}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrStatusChanged
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// ValidateID rejects ids that could not have been issued by Create.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return nil
}

func activeFilter(masterID string, date timerange.Date) bson.M {
	return bson.M{
		"master_id": masterID,
		"date":      date.String(),
		"status":    bson.M{"$in": lifecycle.ActiveStatuses()},
	}
}

// overlapFilter matches active bookings with time < window.End and
// end_time > window.Start. Zero-padded HH:MM strings (24:00 included) sort in
// time order, so the stored strings compare directly.
func overlapFilter(masterID string, date timerange.Date, window timerange.Interval) bson.M {
	filter := activeFilter(masterID, date)
	filter["time"] = bson.M{"$lt": window.End.String()}
	filter["end_time"] = bson.M{"$gt": window.Start.String()}
	return filter
}

func checkScanLimit(bookings []*model.Booking, limit int) error {
	if len(bookings) > limit {
		return fmt.Errorf("%w: more than %d active bookings", bookingserrors.ErrScanLimitExceeded, limit)
	}
	return nil
}

func masterFilter(masterID string, date *timerange.Date) bson.M {
	filter := bson.M{"master_id": masterID}
	if date != nil {
		filter["date"] = date.String()
	}
	return filter
}
