package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// ErrNoSnapshot is returned when no stock scan has been stored yet.
var ErrNoSnapshot = errors.New("no stock snapshot stored")

// Repository defines the interface for stock snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.StockSnapshot) error
	LatestSnapshot(ctx context.Context) (models.StockSnapshot, error)
	ListSnapshots(ctx context.Context, limit int64) ([]models.StockSnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "stock_snapshots",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveSnapshot stores the result of a stock scan.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.StockSnapshot) error {
	if _, err := r.collection().InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert stock snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent scan.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context) (models.StockSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "taken_at", Value: -1}})

	var snapshot models.StockSnapshot
	err := r.collection().FindOne(ctx, bson.D{}, opts).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StockSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return models.StockSnapshot{}, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return snapshot, nil
}

// ListSnapshots returns up to limit scans, newest first.
func (r *MongoDBRepository) ListSnapshots(ctx context.Context, limit int64) ([]models.StockSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	snapshots := []models.StockSnapshot{}
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode snapshots: %w", err)
	}
	return snapshots, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
