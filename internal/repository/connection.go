package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions carries the connection settings read from configuration.
// Zero durations and pool sizes fall back to the driver settings below.
type MongoOptions struct {
	URI                    string
	Database               string
	AppName                string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

const (
	defaultMaxPoolSize            = 100
	defaultConnectTimeout         = 10 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
)

func (o MongoOptions) clientOptions() *options.ClientOptions {
	maxPool := o.MaxPoolSize
	if maxPool == 0 {
		maxPool = defaultMaxPoolSize
	}
	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	selectTimeout := o.ServerSelectionTimeout
	if selectTimeout <= 0 {
		selectTimeout = defaultServerSelectionTimeout
	}

	clientOpts := options.Client().
		ApplyURI(o.URI).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(selectTimeout).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(min(o.MinPoolSize, maxPool))
	if o.AppName != "" {
		clientOpts.SetAppName(o.AppName)
	}
	return clientOpts
}

func ConnectMongoDB(ctx context.Context, opts MongoOptions) (*mongo.Database, error) {
	if opts.URI == "" || opts.Database == "" {
		return nil, errors.New("mongo uri and database are required")
	}

	client, err := mongo.Connect(ctx, opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(opts.Database), nil
}
