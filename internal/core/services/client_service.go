package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	"github.com/crediya/loan_backoffice_app/internal/core/domain"
	portsrepo "github.com/crediya/loan_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
)

// clientService provides client management operations.
type clientService struct {
	clientRepo portsrepo.ClientRepositoryFacade
}

// NewClientService creates a new ClientService.
func NewClientService(clientRepo portsrepo.ClientRepositoryFacade) portssvc.ClientSvcFacade {
	return &clientService{clientRepo: clientRepo}
}

var _ portssvc.ClientSvcFacade = (*clientService)(nil)

// CreateClient registers a new client after checking document uniqueness.
func (s *clientService) CreateClient(ctx context.Context, req dto.CreateClientRequest, creatorUserID string) (*domain.Client, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.clientRepo.FindClientByDocument(ctx, domain.DocumentType(req.DocumentType), req.DocumentNumber)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to check client document uniqueness", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check document uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: client with document %s %s", apperrors.ErrDuplicate, req.DocumentType, req.DocumentNumber)
	}

	now := time.Now().UTC()
	client := domain.Client{
		ClientID:       uuid.NewString(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DocumentType:   domain.DocumentType(req.DocumentType),
		DocumentNumber: req.DocumentNumber,
		Email:          req.Email,
		Phone:          req.Phone,
		IsActive:       true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.clientRepo.SaveClient(ctx, client); err != nil {
		logger.Error("Failed to save client", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	logger.Info("Client created successfully", slog.String("client_id", client.ClientID))
	return &client, nil
}

// GetClientByID retrieves a specific client.
func (s *clientService) GetClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find client %s: %w", clientID, err)
	}
	return client, nil
}

// ListClients retrieves a paginated list of clients.
func (s *clientService) ListClients(ctx context.Context, limit int, offset int) ([]domain.Client, error) {
	if limit <= 0 {
		limit = 20
	}
	clients, err := s.clientRepo.ListClients(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// UpdateClient updates an existing client's contact details.
func (s *clientService) UpdateClient(ctx context.Context, clientID string, req dto.UpdateClientRequest, userID string) (*domain.Client, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.FirstName != nil {
		client.FirstName = *req.FirstName
		updated = true
	}
	if req.LastName != nil {
		client.LastName = *req.LastName
		updated = true
	}
	if req.Email != nil {
		client.Email = *req.Email
		updated = true
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
		updated = true
	}

	if !updated {
		return client, nil
	}

	client.LastUpdatedAt = time.Now().UTC()
	client.LastUpdatedBy = userID

	if err := s.clientRepo.UpdateClient(ctx, *client); err != nil {
		logger.Error("Failed to update client", slog.String("error", err.Error()), slog.String("client_id", clientID))
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	logger.Info("Client updated successfully", slog.String("client_id", clientID))
	return client, nil
}

// DeactivateClient marks a client as inactive.
func (s *clientService) DeactivateClient(ctx context.Context, clientID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	client, err := s.clientRepo.FindClientByID(ctx, clientID)
	if err != nil {
		return err
	}
	if !client.IsActive {
		return nil
	}

	client.IsActive = false
	client.LastUpdatedAt = time.Now().UTC()
	client.LastUpdatedBy = userID

	if err := s.clientRepo.UpdateClient(ctx, *client); err != nil {
		logger.Error("Failed to deactivate client", slog.String("error", err.Error()), slog.String("client_id", clientID))
		return fmt.Errorf("failed to deactivate client: %w", err)
	}

	logger.Info("Client deactivated", slog.String("client_id", clientID))
	return nil
}
