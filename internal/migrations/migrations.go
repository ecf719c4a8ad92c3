// Package migrations применяет SQL-миграции PostgreSQL через golang-migrate.
// Файлы встроены в бинарник; MIGRATIONS_PATH позволяет взять их с диска.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"onyxAgent/internal/config"
	"onyxAgent/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

// Run поднимает схему до последней версии. Для SQLite ничего не делает:
// там схему создаёт AutoMigrate.
func Run(cfg *config.Cfg, log *logger.Zap) error {
	if cfg.Database.Driver != "postgres" {
		log.Debug("Миграции пропущены", zap.String("driver", cfg.Database.Driver))
		return nil
	}

	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	m.Log = &migrateLogger{log: log}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("Ошибка закрытия миграций", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Схема БД актуальна")
			return nil
		}
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("версия схемы: %w", err)
	}
	log.Info("Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Source возвращает набор миграций: с диска, если задан путь, иначе встроенный.
func Source(cfg *config.Cfg) (fs.FS, string) {
	if cfg.Migrations.Path != "" {
		return os.DirFS(cfg.Migrations.Path), "."
	}
	return files, "sql"
}

func newMigrate(cfg *config.Cfg) (*migrate.Migrate, error) {
	fsys, dir := Source(cfg)
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.Database.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("подключение для миграций: %w", err)
	}
	return m, nil
}

type migrateLogger struct {
	log *logger.Zap
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
