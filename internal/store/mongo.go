package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"chatbox/internal/model"
)

const (
	collectionName = "messages"
	connectTimeout = 10 * time.Second
)

// ErrNotConnected is returned while the store connection has not been
// established yet.
var ErrNotConnected = errors.New("message store not connected")

// Mongo is the message store client. Connect runs in the background at
// startup; until it succeeds the store reports itself as disconnected and
// every read/write fails with ErrNotConnected.
type Mongo struct {
	uri       string
	dbName    string
	log       *slog.Logger
	client    *mongo.Client
	connected atomic.Bool
}

// NewMongo creates a store client for the given connection string. No I/O
// happens until Connect is called.
func NewMongo(uri, dbName string, log *slog.Logger) *Mongo {
	return &Mongo{uri: uri, dbName: dbName, log: log}
}

// Connect dials the store and verifies the connection with a ping. Failure is
// logged, not fatal: /ready keeps reporting 503 until a later call succeeds.
func (s *Mongo) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		s.log.Error("mongo connect failed", "error", err)
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		s.log.Error("mongo ping failed", "error", err)
		return err
	}

	s.client = client
	s.connected.Store(true)
	s.log.Info("mongo connected", "database", s.dbName)
	return nil
}

// Connected reports whether the connection has been established.
func (s *Mongo) Connected() bool {
	return s.connected.Load()
}

// Ping checks store connectivity.
func (s *Mongo) Ping(ctx context.Context) error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Close tears down the connection.
func (s *Mongo) Close(ctx context.Context) error {
	if !s.connected.Load() {
		return nil
	}
	s.connected.Store(false)
	return s.client.Disconnect(ctx)
}

func (s *Mongo) collection() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(collectionName)
}

// Insert persists a new message with a store-assigned id and timestamps and
// returns the stored record.
// BSONのdatetime精度に合わせてミリ秒に丸める
func (s *Mongo) Insert(ctx context.Context, msg model.Message) (model.Message, error) {
	if !s.connected.Load() {
		return model.Message{}, ErrNotConnected
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	if _, err := s.collection().InsertOne(ctx, msg); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// List returns every stored message ordered by createdAt descending.
func (s *Mongo) List(ctx context.Context) ([]model.Message, error) {
	if !s.connected.Load() {
		return nil, ErrNotConnected
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []model.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
