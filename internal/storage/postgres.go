package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Postgres struct {
	DB *gorm.DB
}

// dsn - Data Source Name
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Postgres{DB: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// AutoMigrate migrates the shared public tables only. Tenant tables are
// migrated per schema by ProvisionSchema.
func (p *Postgres) AutoMigrate() error {
	return p.DB.AutoMigrate(
		&models.Organization{},
	)
}

func (p *Postgres) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Scoped returns a handle whose every table reference is qualified with schema.
func (p *Postgres) Scoped(schema string) *ScopedDB {
	return &ScopedDB{db: p.DB, schema: schema}
}

// ProvisionSchema creates the tenant schema if needed and migrates the tenant
// tables into it. Safe to run repeatedly.
func (p *Postgres) ProvisionSchema(ctx context.Context, schema string) error {
	scoped := p.Scoped(schema)
	if err := scoped.EnsureSchema(ctx); err != nil {
		return err
	}
	return scoped.Migrate(ctx, models.TenantModels()...)
}

// ScopedDB confines queries to one tenant schema.
type ScopedDB struct {
	db     *gorm.DB
	schema string
}

func (s *ScopedDB) Schema() string {
	return s.schema
}

// Qualify returns the schema-qualified name for a tenant table.
func (s *ScopedDB) Qualify(table string) string {
	return s.schema + "." + table
}

// Table starts a query against a tenant table.
func (s *ScopedDB) Table(ctx context.Context, table string) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.Qualify(table))
}

// Transaction runs fn with a handle bound to the same schema inside one transaction.
func (s *ScopedDB) Transaction(ctx context.Context, fn func(tx *ScopedDB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ScopedDB{db: tx, schema: s.schema})
	})
}

func (s *ScopedDB) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("CREATE SCHEMA IF NOT EXISTS ?", clause.Table{Name: s.schema}).Error; err != nil {
		return fmt.Errorf("failed to create schema %s: %w", s.schema, err)
	}
	return nil
}

func (s *ScopedDB) Migrate(ctx context.Context, tables ...interface{}) error {
	for _, model := range tables {
		tabler, ok := model.(interface{ TableName() string })
		if !ok {
			return fmt.Errorf("model %T has no table name", model)
		}
		if err := s.Table(ctx, tabler.TableName()).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", s.Qualify(tabler.TableName()), err)
		}
	}
	return nil
}
