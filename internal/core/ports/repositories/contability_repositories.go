package repositories

import (
	"context"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
)

// ContabilityReader defines read operations for the contability cache
type ContabilityReader interface {
	// FindRowByInstallmentID retrieves the cache row of one installment, if any.
	FindRowByInstallmentID(ctx context.Context, installmentID string) (*domain.ContabilityRow, error)

	// ListRows retrieves cache rows with payment dates in [from, to], ordered
	// by payment date ascending.
	ListRows(ctx context.Context, from time.Time, to time.Time, limit int, offset int) ([]domain.ContabilityRow, error)
}

// ContabilityWriter defines write operations for the contability cache
type ContabilityWriter interface {
	// UpsertRow inserts or updates the cache row keyed by installment id.
	// A second call for the same installment updates the existing row.
	UpsertRow(ctx context.Context, row domain.ContabilityRow) error

	// DeleteRowByInstallmentID removes the cache row of an installment.
	// Used when a settlement is reversed inside the recompute window.
	DeleteRowByInstallmentID(ctx context.Context, installmentID string) error
}

// ContabilityRepositoryFacade combines all contability cache repository interfaces
type ContabilityRepositoryFacade interface {
	ContabilityReader
	ContabilityWriter
}
