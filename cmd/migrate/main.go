package main

import (
	"github.com/quantract/certledger/internal/config"
	"github.com/quantract/certledger/internal/database"
	"github.com/quantract/certledger/internal/env"
	"github.com/quantract/certledger/internal/model"
	"go.uber.org/zap"
)

func init() {
	env.LoadEnv()
}

// Revisions are append-only: only the artifact columns may change, and rows
// are never deleted. The trigger holds this for every writer, not just GORM.
var statements = []string{
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_certificate_revisions_certificate') THEN
			ALTER TABLE certificate_revisions
				ADD CONSTRAINT fk_certificate_revisions_certificate
				FOREIGN KEY (certificate_id) REFERENCES certificates (id) ON DELETE RESTRICT;
		END IF;
	END $$`,
	`CREATE OR REPLACE FUNCTION certificate_revisions_immutable() RETURNS trigger AS $$
	BEGIN
		IF TG_OP = 'DELETE' THEN
			RAISE EXCEPTION 'certificate revision is immutable';
		END IF;
		IF NEW.certificate_id IS DISTINCT FROM OLD.certificate_id
			OR NEW.revision IS DISTINCT FROM OLD.revision
			OR NEW.content::text IS DISTINCT FROM OLD.content::text
			OR NEW.signing_hash IS DISTINCT FROM OLD.signing_hash
			OR NEW.issued_at IS DISTINCT FROM OLD.issued_at
			OR NEW.issued_by IS DISTINCT FROM OLD.issued_by THEN
			RAISE EXCEPTION 'certificate revision is immutable';
		END IF;
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_certificate_revisions_immutable ON certificate_revisions`,
	`CREATE TRIGGER trg_certificate_revisions_immutable
		BEFORE UPDATE OR DELETE ON certificate_revisions
		FOR EACH ROW EXECUTE FUNCTION certificate_revisions_immutable()`,
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Migrating database %s on %s:%s", cfg.DB.DB_DATABASE, cfg.DB.DB_HOST, cfg.DB.DB_PORT)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	migrateErr := db.AutoMigrate(&model.Certificate{}, &model.CertificateRevision{}, &model.AuditLog{})
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Panic(err)
		}
	}

	logger.Info("Migration complete")
}
