package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the canonical database and the projection database of one cluster.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
	Index    *mongo.Database
}

func NewConnection(ctx context.Context, uri, database, indexDatabase string) (*DB, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName("chat-engine").
		SetMaxPoolSize(50).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(database),
		Index:    client.Database(indexDatabase),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}
