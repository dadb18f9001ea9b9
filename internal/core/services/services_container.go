package services

import (
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Client = NewClientService(repos.ClientRepo)
	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, repos.CurrencyRepo)
	container.User = NewUserService(repos.UserRepo)
	container.Auth = NewAuthService(cfg, repos.UserRepo)
	container.GoogleOAuth = NewGoogleOAuthService(cfg, repos.UserRepo)

	container.Loan = NewLoanService(repos.LoanRepo, repos.ClientRepo, repos.CurrencyRepo)

	// Contability is initialized before Payment because settlement events feed
	// the reporting cache.
	container.Contability = NewContabilityService(
		repos.ContabilityRepo,
		repos.LoanRepo,
		repos.ClientRepo,
		repos.ExchangeRateRepo,
		cfg.LocalCurrencyCode,
		cfg.ContabilityRetention,
	)
	container.Payment = NewPaymentService(repos.PaymentRepo, repos.LoanRepo, container.Contability)

	return container
}
