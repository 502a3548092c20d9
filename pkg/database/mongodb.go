package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
)

// MongoDB holds a write client on the primary and a read client that may
// point at secondaries. Both share one client when no read URI is configured.
type MongoDB struct {
	config      *config.MongoConfig
	readClient  *mongo.Client
	writeClient *mongo.Client
	readDB      *mongo.Database
	writeDB     *mongo.Database
	logger      *zap.Logger
}

func NewMongoDB(cfg *config.MongoConfig) *MongoDB {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30
	}
	if cfg.Type == "" {
		cfg.Type = string(MongoSingle)
	}
	return &MongoDB{
		config: cfg,
		logger: zap.L().With(zap.String("component", "mongodb")),
	}
}

func (m *MongoDB) Connect(ctx context.Context) error {
	if m.config.URI == "" {
		return errors.New("mongo uri is required")
	}

	switch MongoDeployment(m.config.Type) {
	case MongoSingle, MongoReplicaSet, MongoSharded:
	default:
		return fmt.Errorf("unsupported MongoDB deployment: %s", m.config.Type)
	}

	m.logger.Info("Starting MongoDB connection",
		zap.String("deployment_type", m.config.Type),
		zap.String("database", m.config.Database))

	ctx, cancel := context.WithTimeout(ctx, time.Duration(m.config.ConnectTimeout)*time.Second)
	defer cancel()

	writeClient, err := m.createClient(ctx, m.config.URI, "write")
	if err != nil {
		return fmt.Errorf("failed to create write client: %w", err)
	}
	m.writeClient = writeClient
	m.writeDB = writeClient.Database(m.config.Database)

	if m.config.ReadURI == "" || m.config.ReadURI == m.config.URI {
		m.readClient = writeClient
		m.readDB = m.writeDB
	} else {
		readClient, err := m.createClient(ctx, m.config.ReadURI, "read")
		if err != nil {
			_ = writeClient.Disconnect(ctx)
			return fmt.Errorf("failed to create read client: %w", err)
		}
		m.readClient = readClient
		m.readDB = readClient.Database(m.config.Database)
	}

	m.logger.Info("Successfully connected to MongoDB",
		zap.String("deployment_type", m.config.Type),
		zap.Bool("separate_read_client", m.readClient != m.writeClient))
	return nil
}

func (m *MongoDB) readPreference(clientType string) *readpref.ReadPref {
	if clientType != "read" {
		return readpref.Primary()
	}
	switch MongoDeployment(m.config.Type) {
	case MongoReplicaSet:
		return readpref.SecondaryPreferred()
	case MongoSharded:
		return readpref.Nearest()
	default:
		return readpref.Primary()
	}
}

func (m *MongoDB) createClient(ctx context.Context, uri, clientType string) (*mongo.Client, error) {
	pref := m.readPreference(clientType)

	opts := options.Client().
		ApplyURI(uri).
		SetReadPreference(pref).
		SetRetryReads(true).
		SetRetryWrites(clientType == "write").
		SetConnectTimeout(time.Duration(m.config.ConnectTimeout) * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	if m.config.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(m.config.MaxPoolSize)
	}
	if m.config.MinPoolSize > 0 {
		opts.SetMinPoolSize(m.config.MinPoolSize)
	}
	if m.config.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(time.Duration(m.config.MaxConnIdleTime) * time.Second)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		m.logger.Error("Failed to connect to MongoDB", zap.String("client_type", clientType), zap.Error(err))
		return nil, err
	}

	if err := client.Ping(ctx, pref); err != nil {
		m.logger.Error("Failed to ping MongoDB", zap.String("client_type", clientType), zap.Error(err))
		_ = client.Disconnect(ctx)
		return nil, err
	}

	m.logger.Debug("MongoDB client created", zap.String("client_type", clientType))
	return client, nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	if m.writeClient == nil {
		return errors.New("mongo write client not initialized")
	}
	if err := m.writeClient.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("write client ping failed: %w", err)
	}
	if m.readClient != m.writeClient {
		if err := m.readClient.Ping(ctx, m.readPreference("read")); err != nil {
			return fmt.Errorf("read client ping failed: %w", err)
		}
	}
	return nil
}

func (m *MongoDB) HealthCheck(ctx context.Context) map[string]error {
	result := make(map[string]error, 2)

	if m.writeClient == nil {
		result["write_client"] = errors.New("write client not initialized")
	} else {
		result["write_client"] = m.writeClient.Ping(ctx, readpref.Primary())
	}

	if m.readClient == nil {
		result["read_client"] = errors.New("read client not initialized")
	} else if m.readClient != m.writeClient {
		result["read_client"] = m.readClient.Ping(ctx, m.readPreference("read"))
	}

	for name, err := range result {
		if err != nil {
			m.logger.Warn("MongoDB health check failed", zap.String("client", name), zap.Error(err))
		}
	}
	return result
}

func (m *MongoDB) GetType() DatabaseType {
	return MongoDBNoSQL
}

// ReadDB is the database handle used for queries.
func (m *MongoDB) ReadDB() *mongo.Database {
	return m.readDB
}

// WriteDB is the database handle used for inserts, updates and deletes.
func (m *MongoDB) WriteDB() *mongo.Database {
	return m.writeDB
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.logger.Info("Closing MongoDB connections")

	var errs []error
	if m.readClient != nil && m.readClient != m.writeClient {
		errs = append(errs, m.readClient.Disconnect(ctx))
	}
	if m.writeClient != nil {
		errs = append(errs, m.writeClient.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
