package services

import (
	"context"
	"time"

	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	"github.com/crediya/loan_backoffice_app/internal/dto"
)

// CurrencySvcFacade defines operations on the currency reference data.
type CurrencySvcFacade interface {
	// CreateCurrency registers a new currency.
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorUserID string) (*domain.Currency, error)

	// GetCurrencyByCode retrieves a currency.
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// ListCurrencies retrieves all registered currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// ExchangeRateSvcFacade defines operations on exchange rates.
type ExchangeRateSvcFacade interface {
	// CreateExchangeRate registers a new exchange rate.
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)

	// GetLatestRate retrieves the most recent rate between two currencies
	// effective on or before the given date. Identical currencies yield a
	// rate of one.
	GetLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error)
}
