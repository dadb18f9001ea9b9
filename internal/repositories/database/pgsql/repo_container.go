package pgsql

import (
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ClientRepo:       newPgxClientRepository(dbPool),
		LoanRepo:         newPgxLoanRepository(dbPool),
		PaymentRepo:      newPgxPaymentRepository(dbPool),
		ContabilityRepo:  newPgxContabilityRepository(dbPool),
		CurrencyRepo:     newPgxCurrencyRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		UserRepo:         newPgxUserRepository(dbPool),
	}
}
