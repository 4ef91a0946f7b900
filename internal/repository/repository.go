package repository

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type baseRepository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

type Repository struct {
	// DB can be used for transaction. Pass a tx from r.DB.Transaction to the
	// repository functions to run them inside it.
	DB          *gorm.DB
	Certificate *CertificateRepository
	Revision    *RevisionRepository
	AuditLog    *AuditLogRepository
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger) *baseRepository {
	return &baseRepository{db: db, logger: logger}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger) *Repository {
	br := newBaseRepository(db, logger)

	return &Repository{
		DB:          db,
		Certificate: &CertificateRepository{baseRepository: br},
		Revision:    &RevisionRepository{baseRepository: br},
		AuditLog:    &AuditLogRepository{baseRepository: br},
	}
}

// Note: GORM runs single write operations inside a transaction already, so
// this is only needed when several writes must commit together.
// Docs: https://gorm.io/docs/transactions.html
func (b baseRepository) withTx(db *gorm.DB, fn func(*gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})

	if err != nil {
		b.logger.Debugf("withTx transaction rolled back: %v", err)
	}

	return err
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}
