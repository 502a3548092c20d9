package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
)

type DatabaseType string

const (
	PostgreSQL   DatabaseType = "postgres"
	MongoDBNoSQL DatabaseType = "mongodb"
	InMemory     DatabaseType = "memory"
)

type MongoDeployment string

const (
	MongoSingle     MongoDeployment = "single"
	MongoReplicaSet MongoDeployment = "replica_set"
	MongoSharded    MongoDeployment = "sharded"
)

// Database is a connection handle owned by main and passed to repositories.
type Database interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
	GetType() DatabaseType
	HealthCheck(ctx context.Context) map[string]error
}

// DatabaseFactory creates and tracks named connection handles.
type DatabaseFactory struct {
	mu        sync.RWMutex
	databases map[string]Database
}

func NewDatabaseFactory() *DatabaseFactory {
	return &DatabaseFactory{
		databases: make(map[string]Database),
	}
}

// CreateDatabase builds the handle for cfg.Type and connects it.
func (f *DatabaseFactory) CreateDatabase(
	ctx context.Context,
	name string,
	cfg *config.DatabaseConfig,
) (Database, error) {
	var db Database

	switch DatabaseType(cfg.Type) {
	case PostgreSQL:
		db = NewPostgresDB(&cfg.PostgresConfig)
	case MongoDBNoSQL:
		db = NewMongoDB(&cfg.MongoConfig)
	case InMemory:
		db = NewMemoryDB()
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}

	f.mu.Lock()
	f.databases[name] = db
	f.mu.Unlock()
	return db, nil
}

func (f *DatabaseFactory) GetDatabase(name string) (Database, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	db, exists := f.databases[name]
	if !exists {
		return nil, fmt.Errorf("database '%s' not found", name)
	}
	return db, nil
}

func (f *DatabaseFactory) CloseAll(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, db := range f.databases {
		if err := db.Close(ctx); err != nil {
			zap.L().Error("Error closing database", zap.String("name", name), zap.Error(err))
		}
	}
	f.databases = make(map[string]Database)
}

// HealthCheck reports per-connection results keyed by database name.
func (f *DatabaseFactory) HealthCheck(ctx context.Context) map[string]map[string]error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(map[string]map[string]error, len(f.databases))
	for name, db := range f.databases {
		result[name] = db.HealthCheck(ctx)
	}
	return result
}

// Healthy returns the first failing check in name order, or nil.
func (f *DatabaseFactory) Healthy(ctx context.Context) error {
	report := f.HealthCheck(ctx)

	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for conn, err := range report[name] {
			if err != nil {
				return fmt.Errorf("%s/%s: %w", name, conn, err)
			}
		}
	}
	return nil
}
