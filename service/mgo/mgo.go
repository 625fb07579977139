package mgo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config represents the MongoDB configuration.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

// Connect opens the client and pings the deployment so connect-time
// storage failures surface here, not on the first message.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	opts.SetServerSelectionTimeout(10 * time.Second)

	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli.Database(cfg.Database), nil
}

func Disconnect(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}
