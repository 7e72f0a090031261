package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB создает новое подключение к PostgreSQL
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Пул соединений: нагрузка игровых сессий — короткие частые запросы
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// MigrateDB применяет SQL-миграции из каталога migrationsPath ("file://...")
func MigrateDB(db *gorm.DB, migrationsPath string) error {
	log.Println("Запуск применения миграций базы данных...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("не удалось получить *sql.DB из *gorm.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("не удалось проверить подключение к БД перед миграцией: %w", err)
	}

	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		return fmt.Errorf("не удалось создать драйвер postgres для migrate: %w", err)
	}

	m, err := migrateV4.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Println("Изменений в миграциях не найдено, база данных уже актуальна.")
	case err != nil:
		return fmt.Errorf("ошибка применения миграций 'up': %w", err)
	default:
		log.Println("Миграции успешно применены.")
	}

	return nil
}
