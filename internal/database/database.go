package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/journal-backend/internal/logger"
)

const defaultMongoDatabase = "journal"

// ConnectMongo connects and pings MongoDB, returning the database named in
// the URI path or "journal" when the URI names none.
func ConnectMongo(ctx context.Context, mongoURI string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.FromContext(ctx).Info("connected to MongoDB")
	return client, client.Database(mongoDatabaseName(mongoURI)), nil
}

// mongoDatabaseName extracts the database from mongodb://host/name?opts.
func mongoDatabaseName(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	_, path, ok := strings.Cut(rest, "/")
	if !ok {
		return defaultMongoDatabase
	}
	name, _, _ := strings.Cut(path, "?")
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}
