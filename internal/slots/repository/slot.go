package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotserrors "activerse/internal/slots/errors"
	"activerse/pkg/config"
	"activerse/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Time_slots"
)

type SlotRepository interface {
	GetOrCreate(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error)
	Adjust(ctx context.Context, date string, slotTime string, delta int) error
	FindByDate(ctx context.Context, date string) ([]*model.TimeSlot, error)
	SetBookedSpots(ctx context.Context, date string, slotTime string, spots int) error
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout unless it is a transaction
// SessionContext, which cannot be wrapped without breaking the session.
func (r *mongoSlotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// GetOrCreate upserts the ledger row for the slot. The unique (date, time)
// index makes concurrent upserts converge on a single document.
func (r *mongoSlotRepository) GetOrCreate(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"date": date, "time": slotTime}
	update := bson.M{
		"$setOnInsert": bson.M{
			"date":            date,
			"time":            slotTime,
			"available_spots": model.SlotCapacity,
			"booked_spots":    0,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var slot model.TimeSlot
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot); err != nil {
		return nil, fmt.Errorf("failed to get or create time slot: %w", err)
	}

	return &slot, nil
}

// Adjust applies a guest-count delta to booked_spots as a single guarded
// update. A positive delta only matches while booked_spots + delta stays
// within available_spots; a negative delta only matches while booked_spots
// can absorb it. A failed negative guard clamps the row to zero so a drifted
// ledger can never go negative.
func (r *mongoSlotRepository) Adjust(ctx context.Context, date string, slotTime string, delta int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if delta == 0 {
		return nil
	}

	filter := bson.M{"date": date, "time": slotTime}
	if delta > 0 {
		filter["$expr"] = bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$booked_spots", delta}},
			"$available_spots",
		}}
	} else {
		filter["$expr"] = bson.M{"$gte": bson.A{"$booked_spots", -delta}}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booked_spots": delta}})
	if err != nil {
		return fmt.Errorf("failed to adjust time slot: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.exists(ctx, date, slotTime)
	if err != nil {
		return err
	}
	if !exists {
		return slotserrors.ErrNotFound
	}

	if delta > 0 {
		return slotserrors.ErrCapacityExceeded
	}

	// Negative guard failed on an existing row: clamp to zero.
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"date": date, "time": slotTime},
		bson.M{"$set": bson.M{"booked_spots": 0}},
	)
	if err != nil {
		return fmt.Errorf("failed to clamp time slot: %w", err)
	}
	return nil
}

func (r *mongoSlotRepository) exists(ctx context.Context, date string, slotTime string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"date": date, "time": slotTime}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check time slot existence: %w", err)
	}
	return true, nil
}

func (r *mongoSlotRepository) FindByDate(ctx context.Context, date string) ([]*model.TimeSlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find time slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.TimeSlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode time slots: %w", err)
	}

	return slots, nil
}

// SetBookedSpots overwrites booked_spots, creating the row when absent.
// Used by reconciliation only.
func (r *mongoSlotRepository) SetBookedSpots(ctx context.Context, date string, slotTime string, spots int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"date": date, "time": slotTime}
	update := bson.M{
		"$set": bson.M{"booked_spots": spots},
		"$setOnInsert": bson.M{
			"date":            date,
			"time":            slotTime,
			"available_spots": model.SlotCapacity,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set booked spots: %w", err)
	}
	return nil
}
