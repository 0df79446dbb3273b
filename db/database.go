package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tenant_options_go/dialect"
)

var DB *gorm.DB

// MigrationRecord tracks applied migrations per app, mirroring the on-disk
// migration files. The trigger generator consults it when deciding whether
// a trigger migration already exists.
type MigrationRecord struct {
	ID      uint      `gorm:"primarykey" json:"id"`
	App     string    `gorm:"size:100;not null;index" json:"app"`
	Name    string    `gorm:"size:255;not null" json:"name"`
	Applied time.Time `gorm:"not null" json:"applied"`
}

// TableName specifies the table name for MigrationRecord model
func (MigrationRecord) TableName() string {
	return "migration_records"
}

// Initialize opens the database connection for the configured vendor.
// SQLite runs in WAL mode for concurrency.
func Initialize(vendor, dsn, environment string) error {
	normalized, err := dialect.Normalize(vendor)
	if err != nil {
		return err
	}

	// Determine log level based on environment
	logLevel := gormlogger.Info
	if environment == "production" {
		logLevel = gormlogger.Warn
	}
	cfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	switch normalized {
	case dialect.SQLite:
		if dsn != ":memory:" {
			dsn += "?_journal_mode=WAL"
		}
		DB, err = gorm.Open(sqlite.Open(dsn), cfg)
	case dialect.Postgres:
		DB, err = gorm.Open(postgres.Open(dsn), cfg)
	case dialect.MySQL:
		DB, err = gorm.Open(mysql.Open(dsn), cfg)
	default:
		return fmt.Errorf("no driver for vendor %q", normalized)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

// RecordMigration stores one applied migration for an app.
func RecordMigration(gdb *gorm.DB, app, name string) error {
	return gdb.Create(&MigrationRecord{App: app, Name: name, Applied: time.Now()}).Error
}

// LastMigration returns the most recently applied migration name for an
// app, or "" if none is recorded.
func LastMigration(gdb *gorm.DB, app string) (string, error) {
	var record MigrationRecord
	err := gdb.Where("app = ?", app).Order("applied DESC, id DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return record.Name, nil
}

// MigrationsForApp returns recorded migrations for an app, newest first.
func MigrationsForApp(gdb *gorm.DB, app string) ([]MigrationRecord, error) {
	var records []MigrationRecord
	err := gdb.Where("app = ?", app).Order("applied DESC, id DESC").Find(&records).Error
	return records, err
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
