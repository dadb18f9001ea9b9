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
	"github.com/shopspring/decimal"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment and allocation data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

const paymentColumns = `
	payment_id, loan_id, client_id, currency_code, amount, payment_date,
	unallocated_amount, requires_review, notes, created_at, created_by,
	last_updated_at, last_updated_by`

const allocationColumns = `
	allocation_id, payment_id, installment_id, amount, reversed_at, reversed_by,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.PaymentID,
		&p.LoanID,
		&p.ClientID,
		&p.CurrencyCode,
		&p.Amount,
		&p.PaymentDate,
		&p.UnallocatedAmount,
		&p.RequiresReview,
		&p.Notes,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

func scanAllocation(row pgx.Row) (domain.PaymentAllocation, error) {
	var a domain.PaymentAllocation
	var reversedBy *string
	err := row.Scan(
		&a.AllocationID,
		&a.PaymentID,
		&a.InstallmentID,
		&a.Amount,
		&a.ReversedAt,
		&reversedBy,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	if reversedBy != nil {
		a.ReversedBy = *reversedBy
	}
	return a, err
}

// FindPaymentByID retrieves a payment by its identifier.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	payment, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return &payment, nil
}

// ListPaymentsByLoan retrieves payments registered against a loan, newest first.
func (r *PgxPaymentRepository) ListPaymentsByLoan(ctx context.Context, loanID string, limit int, offset int) ([]domain.Payment, error) {
	query := `SELECT` + paymentColumns + `
		FROM payments
		WHERE loan_id = $1
		ORDER BY payment_date DESC, created_at DESC
		LIMIT $2 OFFSET $3;`
	rows, err := r.Pool.Query(ctx, query, loanID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payments for loan %s: %w", loanID, err)
	}
	return payments, nil
}

// FindAllocationsByPaymentID retrieves the allocation rows of one payment,
// including reversed ones.
func (r *PgxPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `SELECT` + allocationColumns + `
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for payment %s: %w", paymentID, err)
	}
	defer rows.Close()

	allocations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PaymentAllocation, error) {
		return scanAllocation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan allocations for payment %s: %w", paymentID, err)
	}
	return allocations, nil
}

// FindAllocationsByInstallmentID retrieves the active (non-reversed) allocation
// rows applied to one installment.
func (r *PgxPaymentRepository) FindAllocationsByInstallmentID(ctx context.Context, installmentID string) ([]domain.PaymentAllocation, error) {
	query := `SELECT` + allocationColumns + `
		FROM payment_allocations
		WHERE installment_id = $1 AND reversed_at IS NULL
		ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, installmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for installment %s: %w", installmentID, err)
	}
	defer rows.Close()

	allocations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PaymentAllocation, error) {
		return scanAllocation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan allocations for installment %s: %w", installmentID, err)
	}
	return allocations, nil
}

// SavePayment inserts a new payment row within the given transaction.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	query := `
		INSERT INTO payments (
			payment_id, loan_id, client_id, currency_code, amount, payment_date,
			unallocated_amount, requires_review, notes, created_at, created_by,
			last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := tx.Exec(ctx, query,
		payment.PaymentID,
		payment.LoanID,
		payment.ClientID,
		payment.CurrencyCode,
		payment.Amount,
		payment.PaymentDate,
		payment.UnallocatedAmount,
		payment.RequiresReview,
		payment.Notes,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// SaveAllocations inserts allocation rows as one batch within the given transaction.
func (r *PgxPaymentRepository) SaveAllocations(ctx context.Context, tx pgx.Tx, allocations []domain.PaymentAllocation) error {
	query := `
		INSERT INTO payment_allocations (
			allocation_id, payment_id, installment_id, amount,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	batch := &pgx.Batch{}
	for i := range allocations {
		a := allocations[i]
		batch.Queue(query,
			a.AllocationID,
			a.PaymentID,
			a.InstallmentID,
			a.Amount,
			a.CreatedAt,
			a.CreatedBy,
			a.LastUpdatedAt,
			a.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range allocations {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert payment allocations: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close allocation batch: %w", err)
	}
	return nil
}

// ReverseAllocationsForInstallment stamps reversal audit fields on every active
// allocation of the installment and returns the reversed rows.
func (r *PgxPaymentRepository) ReverseAllocationsForInstallment(ctx context.Context, tx pgx.Tx, installmentID string, reversedBy string, reversedAt time.Time) ([]domain.PaymentAllocation, error) {
	query := `
		UPDATE payment_allocations
		SET reversed_at = $2, reversed_by = $3, last_updated_at = $2, last_updated_by = $3
		WHERE installment_id = $1 AND reversed_at IS NULL
		RETURNING` + allocationColumns + `;`
	rows, err := tx.Query(ctx, query, installmentID, reversedAt, reversedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse allocations for installment %s: %w", installmentID, err)
	}
	defer rows.Close()

	reversed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PaymentAllocation, error) {
		return scanAllocation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan reversed allocations for installment %s: %w", installmentID, err)
	}
	return reversed, nil
}

// UpdatePaymentReview updates the unallocated amount and review flag of a payment.
func (r *PgxPaymentRepository) UpdatePaymentReview(ctx context.Context, tx pgx.Tx, paymentID string, unallocatedAmount decimal.Decimal, requiresReview bool) error {
	query := `
		UPDATE payments
		SET unallocated_amount = $2, requires_review = $3
		WHERE payment_id = $1;
	`
	tag, err := tx.Exec(ctx, query, paymentID, unallocatedAmount, requiresReview)
	if err != nil {
		return fmt.Errorf("failed to update review state of payment %s: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
