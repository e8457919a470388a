package sqlstore

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"pill-reminder/internal/platform/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationTable = "schema_migrations"

// Migrate aplica las migraciones embebidas. goose usa estado global, así que
// no llamar en paralelo.
func Migrate(db *sql.DB, dialect Dialect, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	goose.SetLogger(gooseLogger{log: log})
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(migrationTable)

	if err := goose.SetDialect(dialect.gooseName()); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger manda la salida de goose a nuestro logger. Fatalf no termina el
// proceso: el error vuelve por Up.
type gooseLogger struct {
	log logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}
