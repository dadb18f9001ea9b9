package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxContabilityRepository struct {
	BaseRepository
}

// newPgxContabilityRepository creates a new repository for the contability cache.
func newPgxContabilityRepository(pool *pgxpool.Pool) portsrepo.ContabilityRepositoryFacade {
	return &PgxContabilityRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ContabilityRepositoryFacade = (*PgxContabilityRepository)(nil)

const contabilityColumns = `
	row_id, installment_id, loan_id, client_id, client_name, document_type,
	document_number, due_date, payment_date, currency_code, document_amount,
	exchange_rate, local_amount, created_at, created_by, last_updated_at, last_updated_by`

func scanContabilityRow(row pgx.Row) (domain.ContabilityRow, error) {
	var c domain.ContabilityRow
	err := row.Scan(
		&c.RowID,
		&c.InstallmentID,
		&c.LoanID,
		&c.ClientID,
		&c.ClientName,
		&c.DocumentType,
		&c.DocumentNumber,
		&c.DueDate,
		&c.PaymentDate,
		&c.CurrencyCode,
		&c.DocumentAmount,
		&c.ExchangeRate,
		&c.LocalAmount,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	return c, err
}

// FindRowByInstallmentID retrieves the cache row of one installment, if any.
func (r *PgxContabilityRepository) FindRowByInstallmentID(ctx context.Context, installmentID string) (*domain.ContabilityRow, error) {
	query := `SELECT` + contabilityColumns + ` FROM contability_cache WHERE installment_id = $1;`
	row, err := scanContabilityRow(r.Pool.QueryRow(ctx, query, installmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find contability row for installment %s: %w", installmentID, err)
	}
	return &row, nil
}

// ListRows retrieves cache rows with payment dates in [from, to], ordered by
// payment date ascending.
func (r *PgxContabilityRepository) ListRows(ctx context.Context, from time.Time, to time.Time, limit int, offset int) ([]domain.ContabilityRow, error) {
	query := `SELECT` + contabilityColumns + `
		FROM contability_cache
		WHERE payment_date >= $1 AND payment_date <= $2
		ORDER BY payment_date, client_name
		LIMIT $3 OFFSET $4;`
	rows, err := r.Pool.Query(ctx, query, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contability rows: %w", err)
	}
	defer rows.Close()

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ContabilityRow, error) {
		return scanContabilityRow(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan contability rows: %w", err)
	}
	return result, nil
}

// UpsertRow inserts or updates the cache row keyed by installment id.
func (r *PgxContabilityRepository) UpsertRow(ctx context.Context, row domain.ContabilityRow) error {
	query := `
		INSERT INTO contability_cache (
			row_id, installment_id, loan_id, client_id, client_name, document_type,
			document_number, due_date, payment_date, currency_code, document_amount,
			exchange_rate, local_amount, created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (installment_id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			document_type = EXCLUDED.document_type,
			document_number = EXCLUDED.document_number,
			due_date = EXCLUDED.due_date,
			payment_date = EXCLUDED.payment_date,
			currency_code = EXCLUDED.currency_code,
			document_amount = EXCLUDED.document_amount,
			exchange_rate = EXCLUDED.exchange_rate,
			local_amount = EXCLUDED.local_amount,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		row.RowID,
		row.InstallmentID,
		row.LoanID,
		row.ClientID,
		row.ClientName,
		row.DocumentType,
		row.DocumentNumber,
		row.DueDate,
		row.PaymentDate,
		row.CurrencyCode,
		row.DocumentAmount,
		row.ExchangeRate,
		row.LocalAmount,
		row.CreatedAt,
		row.CreatedBy,
		row.LastUpdatedAt,
		row.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert contability row for installment %s: %w", row.InstallmentID, err)
	}
	return nil
}

// DeleteRowByInstallmentID removes the cache row of an installment.
func (r *PgxContabilityRepository) DeleteRowByInstallmentID(ctx context.Context, installmentID string) error {
	query := `DELETE FROM contability_cache WHERE installment_id = $1;`
	if _, err := r.Pool.Exec(ctx, query, installmentID); err != nil {
		return fmt.Errorf("failed to delete contability row for installment %s: %w", installmentID, err)
	}
	return nil
}
