package database

import (
	"fmt"

	"onyxAgent/internal/config"
	"onyxAgent/internal/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

// New открывает БД по драйверу из конфигурации. Для SQLite схема создаётся
// через AutoMigrate, для PostgreSQL её готовит пакет migrations.
func New(cfg *config.Cfg, log *logger.Zap) (*DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.Database.PostgresDSN()), gcfg)
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(cfg.Database.SQLitePath), gcfg)
	default:
		return nil, fmt.Errorf("неизвестный драйвер БД: %s", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("подключение к БД: %w", err)
	}

	if cfg.Database.Driver != "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// у каждого соединения с :memory: своя база
		sqlDB.SetMaxOpenConns(1)

		if err := db.AutoMigrate(&Task{}, &AgentStep{}, &LlmLog{}); err != nil {
			return nil, fmt.Errorf("создание схемы: %w", err)
		}
	}

	log.Info("БД подключена", zap.String("driver", driverName(cfg)))
	return &DB{DB: db}, nil
}

func (d *DB) Close(log *logger.Zap) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		log.Error("Ошибка получения соединения БД", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("Ошибка закрытия БД", zap.Error(err))
	}
}

func driverName(cfg *config.Cfg) string {
	if cfg.Database.Driver == "" {
		return "sqlite"
	}
	return cfg.Database.Driver
}
