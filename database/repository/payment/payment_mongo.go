package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"tripnest/database"
	"tripnest/models"
	"tripnest/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo creates a new instance of PaymentRepository using MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	coll := database.MongoClient.Database(database.DBName).Collection("payments")
	repo := &MongoPaymentRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("payment repo: failed to create indexes: %v", err)
	}
	return repo
}

// Create inserts a new payment record.
func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.Active = payment.Status != models.PaymentStatusFailed
	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrActivePaymentExists
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its unique ID.
func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", id, err)
	}
	return &payment, nil
}

// GetByTxRef retrieves a payment by its gateway correlation reference.
func (r *MongoPaymentRepo) GetByTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"tx_ref": txRef}).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to fetch payment by tx_ref %s: %w", txRef, err)
	}
	return &payment, nil
}

// FindActiveByBooking retrieves the booking's non-failed payment, if any.
func (r *MongoPaymentRepo) FindActiveByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	var payment models.Payment
	filter := bson.M{"booking_id": bookingID, "active": true}
	if err := r.coll.FindOne(ctx, filter).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to fetch active payment for booking %s: %w", bookingID, err)
	}
	return &payment, nil
}

// MarkCompleted transitions pending -> completed. The filter on the current
// status makes the write a compare-and-set: only one caller ever observes
// ModifiedCount == 1 for a given tx_ref.
func (r *MongoPaymentRepo) MarkCompleted(ctx context.Context, txRef, method string) (bool, error) {
	filter := bson.M{"tx_ref": txRef, "status": models.PaymentStatusPending}
	update := bson.M{"$set": bson.M{
		"status":         models.PaymentStatusCompleted,
		"payment_method": method,
		"updated_at":     time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment %s: %w", txRef, err)
	}
	return res.ModifiedCount == 1, nil
}

// MarkFailed transitions pending -> failed and releases the active slot.
func (r *MongoPaymentRepo) MarkFailed(ctx context.Context, txRef string) (bool, error) {
	filter := bson.M{"tx_ref": txRef, "status": models.PaymentStatusPending}
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentStatusFailed,
		"active":     false,
		"updated_at": time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to fail payment %s: %w", txRef, err)
	}
	return res.ModifiedCount == 1, nil
}

// SupersedeStale fails the booking's pending payment if it predates the cutoff.
func (r *MongoPaymentRepo) SupersedeStale(ctx context.Context, bookingID string, cutoff time.Time) (bool, error) {
	filter := bson.M{
		"booking_id": bookingID,
		"status":     models.PaymentStatusPending,
		"updated_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentStatusFailed,
		"active":     false,
		"updated_at": time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to supersede stale payment for booking %s: %w", bookingID, err)
	}
	return res.ModifiedCount == 1, nil
}
