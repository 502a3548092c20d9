package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
)

// PostgresDB keeps separate write and read pools. The read pool targets
// ReadHost when set and otherwise reuses the primary host.
type PostgresDB struct {
	config    *config.PostgresConfig
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
	logger    *zap.Logger
}

func NewPostgresDB(cfg *config.PostgresConfig) *PostgresDB {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30
	}
	return &PostgresDB{
		config: cfg,
		logger: zap.L().With(zap.String("component", "postgres")),
	}
}

func (p *PostgresDB) Connect(ctx context.Context) error {
	p.logger.Info("Starting PostgreSQL connection",
		zap.String("host", p.config.Host),
		zap.Int("port", p.config.Port),
		zap.String("database", p.config.Database))

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.config.ConnectTimeout)*time.Second)
	defer cancel()

	var err error
	p.writePool, err = p.openPool(ctx, p.config.Host, p.config.Port)
	if err != nil {
		return fmt.Errorf("write pool: %w", err)
	}

	readHost, readPort := p.config.ReadHost, p.config.ReadPort
	if readHost == "" {
		readHost, readPort = p.config.Host, p.config.Port
	}
	if readPort == 0 {
		readPort = p.config.Port
	}

	p.readPool, err = p.openPool(ctx, readHost, readPort)
	if err != nil {
		p.writePool.Close()
		return fmt.Errorf("read pool: %w", err)
	}

	p.logger.Info("Successfully connected to PostgreSQL",
		zap.String("write_host", p.config.Host),
		zap.String("read_host", readHost))
	return nil
}

func (p *PostgresDB) openPool(ctx context.Context, host string, port int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(p.buildPgxDSN(host, port))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	p.configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s:%d: %w", host, port, err)
	}
	return pool, nil
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	if p.writePool == nil || p.readPool == nil {
		return errors.New("postgres pools not initialized")
	}
	if err := p.writePool.Ping(ctx); err != nil {
		return fmt.Errorf("write pool ping failed: %w", err)
	}
	if err := p.readPool.Ping(ctx); err != nil {
		return fmt.Errorf("read pool ping failed: %w", err)
	}
	return nil
}

func (p *PostgresDB) HealthCheck(ctx context.Context) map[string]error {
	result := make(map[string]error, 2)
	for name, pool := range map[string]*pgxpool.Pool{"write_pool": p.writePool, "read_pool": p.readPool} {
		if pool == nil {
			result[name] = fmt.Errorf("%s not initialized", name)
			continue
		}
		result[name] = pool.Ping(ctx)
		if result[name] != nil {
			p.logger.Warn("PostgreSQL health check failed", zap.String("pool", name), zap.Error(result[name]))
		}
	}
	return result
}

func (p *PostgresDB) GetType() DatabaseType {
	return PostgreSQL
}

func (p *PostgresDB) ReadPool() *pgxpool.Pool {
	return p.readPool
}

func (p *PostgresDB) WritePool() *pgxpool.Pool {
	return p.writePool
}

func (p *PostgresDB) Close(context.Context) error {
	p.logger.Info("Closing PostgreSQL connections")
	if p.writePool != nil {
		p.writePool.Close()
	}
	if p.readPool != nil {
		p.readPool.Close()
	}
	return nil
}

func (p *PostgresDB) buildPgxDSN(host string, port int) string {
	sslMode := p.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.config.Username, p.config.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + p.config.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return dsn.String()
}

func (p *PostgresDB) configurePool(cfg *pgxpool.Config) {
	if p.config.MaxConns != 0 {
		cfg.MaxConns = p.config.MaxConns
	}
	if p.config.MinConns != 0 {
		cfg.MinConns = p.config.MinConns
	}
	if p.config.ConnMaxIdleTime != 0 {
		cfg.MaxConnIdleTime = time.Duration(p.config.ConnMaxIdleTime) * time.Minute
	}
	if p.config.ConnMaxLifetime != 0 {
		cfg.MaxConnLifetime = time.Duration(p.config.ConnMaxLifetime) * time.Hour
	}
	if p.config.HealthCheckPeriod != 0 {
		cfg.HealthCheckPeriod = time.Duration(p.config.HealthCheckPeriod) * time.Minute
	}
}
