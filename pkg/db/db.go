package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

type DB struct {
	DB *gorm.DB
}

func New(dsn string, logLevel gormlogger.LogLevel) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	return &DB{
		DB: db,
	}, nil
}

// UpdateSchema ensures the pgvector extension exists and migrates all models.
func (d *DB) UpdateSchema() error {
	if err := d.DB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}

	return d.DB.AutoMigrate(
		&models.Client{},
		&models.Advocate{},
		&models.Conversation{},
		&models.Message{},
		&models.MemoryRecord{},
		&models.Incident{},
		&models.ConsultationRequest{},
	)
}
