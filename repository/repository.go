package repository

import (
	"errors"
	"fmt"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rivulet/traceledger/repository/models"
)

// PostgreSQL error codes as constants
const (
	// Class 23 — Integrity Constraint Violation
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrCheckViolation      = "23514" // check_violation
	PgErrNotNullViolation    = "23502" // not_null_violation

	// Class 08 — Connection Exception
	PgErrConnectionException = "08000" // connection_exception
	PgErrConnectionFailure   = "08006" // connection_failure
)

// RepositoryError represents an error in the relational mirror layer.
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

// Repository is a read-optimized relational mirror of the ledger. The badger
// ledger stays authoritative; rows here exist for reporting queries the KV
// layout cannot answer cheaply (listing, filtering, dashboard views). Mirror
// writes are replay safe: re-inserting an already mirrored row is not an
// error.
type Repository struct {
	db     *gorm.DB
	logger cmtlog.Logger
}

func NewRepository(logger cmtlog.Logger) *Repository {
	return &Repository{logger: logger}
}

// ConnectDB connects to Postgres, retrying for a short while since the
// database container may still be starting.
func (r *Repository) ConnectDB(dsn string) error {
	var lastErr error
	for i := 0; i < 10; i++ {
		db, err := gorm.Open(postgres.Open(dsn))
		if err != nil {
			lastErr = err
			r.logger.Info("Postgres connection attempt failed", "attempt", i+1, "err", err)
			time.Sleep(2 * time.Second)
			continue
		}
		r.db = db
		r.logger.Info("Connected to Postgres")
		return nil
	}
	return lastErr
}

// Migrate creates or updates the mirror tables.
func (r *Repository) Migrate() error {
	err := r.db.AutoMigrate(
		&models.Product{},
		&models.Checkpoint{},
		&models.Certification{},
	)
	if err != nil {
		return err
	}
	r.logger.Info("Database migration completed")
	return nil
}

// MirrorProduct inserts a committed product row.
func (r *Repository) MirrorProduct(p *models.Product) error {
	return r.insertIgnoringReplay(p)
}

// MirrorCheckpoint inserts a committed checkpoint row.
func (r *Repository) MirrorCheckpoint(c *models.Checkpoint) error {
	return r.insertIgnoringReplay(c)
}

// MirrorCertification inserts a committed certification row.
func (r *Repository) MirrorCertification(c *models.Certification) error {
	return r.insertIgnoringReplay(c)
}

// insertIgnoringReplay creates a row, treating unique and primary-key
// violations as a successful no-op so a mirror replay after restart cannot
// fail.
func (r *Repository) insertIgnoringReplay(row any) error {
	err := r.db.Create(row).Error
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// ListProducts returns a page of mirrored products, newest id first.
func (r *Repository) ListProducts(offset, limit int) ([]models.Product, *RepositoryError) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var products []models.Product
	err := r.db.Order("product_id DESC").Offset(offset).Limit(limit).Find(&products).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return products, nil
}

// CountProducts returns the number of mirrored products.
func (r *Repository) CountProducts() (int64, *RepositoryError) {
	var count int64
	err := r.db.Model(&models.Product{}).Count(&count).Error
	if err != nil {
		return 0, wrapDBError(err)
	}
	return count, nil
}

// ProductsByCountry returns per-country product counts for dashboard views.
func (r *Repository) ProductsByCountry() (map[string]int64, *RepositoryError) {
	type row struct {
		OriginCountry string
		N             int64
	}
	var rows []row
	err := r.db.Model(&models.Product{}).
		Select("origin_country, count(*) as n").
		Group("origin_country").
		Find(&rows).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.OriginCountry] = rw.N
	}
	return counts, nil
}

func wrapDBError(err error) *RepositoryError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &RepositoryError{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Detail:  pgErr.Detail,
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &RepositoryError{
			Code:    "ENTITY_NOT_FOUND",
			Message: "Record does not exist",
			Detail:  err.Error(),
		}
	}
	return &RepositoryError{
		Code:    "DATABASE_ERROR",
		Message: "Database error occured",
		Detail:  err.Error(),
	}
}
