package services

import (
	"context"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// ContabilitySvcFacade defines operations on the denormalized contability cache.
type ContabilitySvcFacade interface {
	// RefreshCacheRow recomputes the cache row of an installment. It is a
	// no-op when the installment has no settled payment, and rows outside the
	// retention window are frozen and never recomputed.
	RefreshCacheRow(ctx context.Context, installmentID string) error

	// GetReport retrieves cache rows for the contability report.
	GetReport(ctx context.Context, params dto.ContabilityReportParams) ([]domain.ContabilityRow, error)
}
