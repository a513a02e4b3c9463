package infra

import (
	"fmt"

	"cajas/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates all tables and applies schema patches.
// Also used by the integration test environment.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Sucursal{},
		&model.Usuario{},
		&model.Corte{},
		&model.Movimiento{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle.
// The partial unique indexes are the real enforcement of the single-active-corte
// rule: under two concurrent opens the second INSERT fails at the database, not
// just at the application-level existence check.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"one open corte per user per branch per day", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_corte_usuario_activo') THEN
    CREATE UNIQUE INDEX uniq_corte_usuario_activo
        ON cortes (sucursal_id, usuario_id, fecha)
        WHERE estado = 'pendiente' AND ambito = 'corte_usuario';
  END IF;
END $$`},
		{"one open caja chica / caja general per branch per day", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_caja_sucursal_activa') THEN
    CREATE UNIQUE INDEX uniq_caja_sucursal_activa
        ON cortes (sucursal_id, ambito, fecha)
        WHERE estado = 'pendiente' AND ambito <> 'corte_usuario';
  END IF;
END $$`},
		{"partial index for the notification retry cron query", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cortes_notificacion_pendiente') THEN
    CREATE INDEX idx_cortes_notificacion_pendiente
        ON cortes (next_retry_at)
        WHERE estado_notificacion = 'pendiente' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
		{"movimientos lookup by corte", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_movimientos_corte') THEN
    CREATE INDEX idx_movimientos_corte ON movimientos (corte_id);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
