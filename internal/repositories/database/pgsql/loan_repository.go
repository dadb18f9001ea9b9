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

type PgxLoanRepository struct {
	BaseRepository
}

// newPgxLoanRepository creates a new repository for loan and installment data.
func newPgxLoanRepository(pool *pgxpool.Pool) portsrepo.LoanRepositoryWithTx {
	return &PgxLoanRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.LoanRepositoryWithTx = (*PgxLoanRepository)(nil)

const loanColumns = `
	loan_id, client_id, currency_code, principal, annual_rate, installment_count,
	frequency, disbursement_date, status, created_at, created_by, last_updated_at, last_updated_by`

const installmentColumns = `
	installment_id, loan_id, sequence_number, due_date, amount, interest_portion,
	principal_portion, paid_amount, settlement_date, status, created_at, created_by,
	last_updated_at, last_updated_by`

func scanLoan(row pgx.Row) (domain.Loan, error) {
	var loan domain.Loan
	err := row.Scan(
		&loan.LoanID,
		&loan.ClientID,
		&loan.CurrencyCode,
		&loan.Principal,
		&loan.AnnualRate,
		&loan.InstallmentCount,
		&loan.Frequency,
		&loan.DisbursementDate,
		&loan.Status,
		&loan.CreatedAt,
		&loan.CreatedBy,
		&loan.LastUpdatedAt,
		&loan.LastUpdatedBy,
	)
	return loan, err
}

func scanInstallment(row pgx.Row) (domain.Installment, error) {
	var inst domain.Installment
	err := row.Scan(
		&inst.InstallmentID,
		&inst.LoanID,
		&inst.SequenceNumber,
		&inst.DueDate,
		&inst.Amount,
		&inst.InterestPortion,
		&inst.PrincipalPortion,
		&inst.PaidAmount,
		&inst.SettlementDate,
		&inst.Status,
		&inst.CreatedAt,
		&inst.CreatedBy,
		&inst.LastUpdatedAt,
		&inst.LastUpdatedBy,
	)
	return inst, err
}

// SaveLoan inserts a new loan row.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	query := `
		INSERT INTO loans (
			loan_id, client_id, currency_code, principal, annual_rate, installment_count,
			frequency, disbursement_date, status, created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		loan.LoanID,
		loan.ClientID,
		loan.CurrencyCode,
		loan.Principal,
		loan.AnnualRate,
		loan.InstallmentCount,
		loan.Frequency,
		loan.DisbursementDate,
		loan.Status,
		loan.CreatedAt,
		loan.CreatedBy,
		loan.LastUpdatedAt,
		loan.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save loan %s: %w", loan.LoanID, err)
	}
	return nil
}

// FindLoanByID retrieves a loan by its identifier.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT` + loanColumns + ` FROM loans WHERE loan_id = $1;`
	loan, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	return &loan, nil
}

// ListLoansByClient retrieves loans for a given client, newest first.
func (r *PgxLoanRepository) ListLoansByClient(ctx context.Context, clientID string, limit int, offset int) ([]domain.Loan, error) {
	query := `SELECT` + loanColumns + `
		FROM loans
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;`
	rows, err := r.Pool.Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans for client %s: %w", clientID, err)
	}
	defer rows.Close()

	loans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Loan, error) {
		return scanLoan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan loans for client %s: %w", clientID, err)
	}
	return loans, nil
}

// ListLoans retrieves a paginated list of loans, newest first.
func (r *PgxLoanRepository) ListLoans(ctx context.Context, limit int, offset int) ([]domain.Loan, error) {
	query := `SELECT` + loanColumns + `
		FROM loans
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	loans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Loan, error) {
		return scanLoan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan loans: %w", err)
	}
	return loans, nil
}

// UpdateLoanStatus updates the denormalized lifecycle status of a loan.
func (r *PgxLoanRepository) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE loans
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE loan_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, loanID, status, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update status of loan %s: %w", loanID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateLoanStatusInTx is UpdateLoanStatus within a caller-managed transaction.
func (r *PgxLoanRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status domain.LoanStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE loans
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE loan_id = $1;
	`
	tag, err := tx.Exec(ctx, query, loanID, status, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update status of loan %s: %w", loanID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindInstallmentByID retrieves a single installment.
func (r *PgxLoanRepository) FindInstallmentByID(ctx context.Context, installmentID string) (*domain.Installment, error) {
	query := `SELECT` + installmentColumns + ` FROM installments WHERE installment_id = $1;`
	inst, err := scanInstallment(r.Pool.QueryRow(ctx, query, installmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find installment %s: %w", installmentID, err)
	}
	return &inst, nil
}

// FindInstallmentsByLoanID retrieves a loan's full schedule ordered by sequence number.
func (r *PgxLoanRepository) FindInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.Installment, error) {
	query := `SELECT` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1
		ORDER BY sequence_number;`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	installments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Installment, error) {
		return scanInstallment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan installments for loan %s: %w", loanID, err)
	}
	return installments, nil
}

const insertInstallmentQuery = `
	INSERT INTO installments (
		installment_id, loan_id, sequence_number, due_date, amount, interest_portion,
		principal_portion, paid_amount, settlement_date, status, created_at, created_by,
		last_updated_at, last_updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`

func queueInstallmentInsert(batch *pgx.Batch, inst domain.Installment) {
	batch.Queue(insertInstallmentQuery,
		inst.InstallmentID,
		inst.LoanID,
		inst.SequenceNumber,
		inst.DueDate,
		inst.Amount,
		inst.InterestPortion,
		inst.PrincipalPortion,
		inst.PaidAmount,
		inst.SettlementDate,
		inst.Status,
		inst.CreatedAt,
		inst.CreatedBy,
		inst.LastUpdatedAt,
		inst.LastUpdatedBy,
	)
}

// SaveSchedule persists a full schedule as one atomic batch: either every
// installment is inserted or none is.
func (r *PgxLoanRepository) SaveSchedule(ctx context.Context, loanID string, installments []domain.Installment) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	for i := range installments {
		queueInstallmentInsert(batch, installments[i])
	}

	br := tx.SendBatch(ctx, batch)
	for range installments {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert schedule for loan %s: %w", loanID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close schedule batch for loan %s: %w", loanID, err)
	}

	return r.Commit(ctx, tx)
}

// ReplacePendingSchedule atomically deletes the loan's PENDING installments and
// inserts the given replacement schedule. Settled rows are untouched.
func (r *PgxLoanRepository) ReplacePendingSchedule(ctx context.Context, loanID string, installments []domain.Installment) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Serialize against concurrent payment allocation on this loan.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, loanID); err != nil {
		return fmt.Errorf("failed to acquire loan lock for %s: %w", loanID, err)
	}

	deleteQuery := `DELETE FROM installments WHERE loan_id = $1 AND status = $2;`
	if _, err := tx.Exec(ctx, deleteQuery, loanID, domain.InstallmentPending); err != nil {
		return fmt.Errorf("failed to delete pending installments of loan %s: %w", loanID, err)
	}

	batch := &pgx.Batch{}
	for i := range installments {
		queueInstallmentInsert(batch, installments[i])
	}

	br := tx.SendBatch(ctx, batch)
	for range installments {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert replacement schedule for loan %s: %w", loanID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close replacement batch for loan %s: %w", loanID, err)
	}

	return r.Commit(ctx, tx)
}

// LockPendingInstallments takes a per-loan advisory lock and returns the loan's
// PENDING installments ordered by due date ascending, selected FOR UPDATE.
func (r *PgxLoanRepository) LockPendingInstallments(ctx context.Context, tx pgx.Tx, loanID string) ([]domain.Installment, error) {
	// hashtext maps the loan id onto the advisory lock keyspace. The lock is
	// released automatically at transaction end.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, loanID); err != nil {
		return nil, fmt.Errorf("failed to acquire loan lock for %s: %w", loanID, err)
	}

	query := `SELECT` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1 AND status = $2
		ORDER BY due_date, sequence_number
		FOR UPDATE;`
	rows, err := tx.Query(ctx, query, loanID, domain.InstallmentPending)
	if err != nil {
		return nil, fmt.Errorf("failed to lock installments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	installments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Installment, error) {
		return scanInstallment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan locked installments for loan %s: %w", loanID, err)
	}
	return installments, nil
}

// UpdateInstallmentSettlement persists settlement-state mutations within the
// given transaction. Schedule fields are never written here.
func (r *PgxLoanRepository) UpdateInstallmentSettlement(ctx context.Context, tx pgx.Tx, installment domain.Installment) error {
	query := `
		UPDATE installments
		SET paid_amount = $2, settlement_date = $3, status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE installment_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		installment.InstallmentID,
		installment.PaidAmount,
		installment.SettlementDate,
		installment.Status,
		installment.LastUpdatedAt,
		installment.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement of installment %s: %w", installment.InstallmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
