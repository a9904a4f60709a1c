package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"waxhands/internal/models"
	"waxhands/internal/repositories"
)

type WorkshopService struct {
	WorkshopRepo *repositories.WorkshopRepository
	InvoiceRepo  *repositories.InvoiceRepository
	Robokassa    *RobokassaService
}

func (s *WorkshopService) CreateWorkshop(ctx context.Context, w models.Workshop) (models.Workshop, error) {
	return s.WorkshopRepo.CreateWorkshop(ctx, w)
}

func (s *WorkshopService) GetWorkshopByID(ctx context.Context, id int) (models.Workshop, error) {
	return s.WorkshopRepo.GetWorkshopByID(ctx, id)
}

func (s *WorkshopService) GetWorkshopsBySchool(ctx context.Context, schoolID int) ([]models.Workshop, error) {
	return s.WorkshopRepo.GetWorkshopsBySchool(ctx, schoolID)
}

func (s *WorkshopService) GetUpcomingWorkshops(ctx context.Context) ([]models.Workshop, error) {
	return s.WorkshopRepo.GetUpcomingWorkshops(ctx)
}

func (s *WorkshopService) UpdateWorkshop(ctx context.Context, w models.Workshop) (models.Workshop, error) {
	return s.WorkshopRepo.UpdateWorkshop(ctx, w)
}

func (s *WorkshopService) DeleteWorkshop(ctx context.Context, id int) error {
	return s.WorkshopRepo.DeleteWorkshop(ctx, id)
}

func (s *WorkshopService) CreateRequest(ctx context.Context, req models.WorkshopRequest) (models.WorkshopRequest, error) {
	if _, err := s.WorkshopRepo.GetWorkshopByID(ctx, req.WorkshopID); err != nil {
		return models.WorkshopRequest{}, err
	}
	return s.WorkshopRepo.CreateRequest(ctx, req)
}

func (s *WorkshopService) GetRequestsByUser(ctx context.Context, userID int) ([]models.WorkshopRequest, error) {
	return s.WorkshopRepo.GetRequestsByUser(ctx, userID)
}

// SetRequestStatus — ручное управление заявкой из админки.
func (s *WorkshopService) SetRequestStatus(ctx context.Context, requestID int, status string) error {
	switch status {
	case models.RequestStatusNew, models.RequestStatusInvoiced,
		models.RequestStatusConfirmed, models.RequestStatusDeclined:
	default:
		return fmt.Errorf("unknown request status %q", status)
	}
	if _, err := s.WorkshopRepo.GetRequestByID(ctx, requestID); err != nil {
		return err
	}
	return s.WorkshopRepo.SetRequestStatus(ctx, requestID, status)
}

// PaymentLink is the pay-URL response for one booking.
type PaymentLink struct {
	InvoiceID     string  `json:"invoice_id"`
	ProviderInvID int64   `json:"provider_inv_id"`
	Amount        float64 `json:"amount"`
	URL           string  `json:"url"`
}

// CreatePaymentLink issues a pending invoice for a booking and builds the
// Robokassa payment URL. The provider-facing numeric identifier is generated
// here and never changes afterwards.
func (s *WorkshopService) CreatePaymentLink(ctx context.Context, requestID int) (PaymentLink, error) {
	req, err := s.WorkshopRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return PaymentLink{}, err
	}
	workshop, err := s.WorkshopRepo.GetWorkshopByID(ctx, req.WorkshopID)
	if err != nil {
		return PaymentLink{}, err
	}

	inv := models.Invoice{
		ID:           fmt.Sprintf("INV-%d", uuid.New().ID()),
		UserID:       req.UserID,
		ChildID:      req.ChildID,
		WorkshopID:   req.WorkshopID,
		Amount:       workshop.Price,
		WorkshopDate: workshop.Date,
	}
	inv, err = s.InvoiceRepo.Create(ctx, inv)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("create invoice: %w", err)
	}

	providerInvID := int64(uuid.New().ID())
	if err := s.InvoiceRepo.AssignProviderID(ctx, inv.ID, providerInvID); err != nil {
		return PaymentLink{}, fmt.Errorf("assign provider id: %w", err)
	}

	description := fmt.Sprintf("Мастер-класс «%s»", workshop.Title)
	payURL, err := s.Robokassa.GeneratePayURL(providerInvID, inv.Amount, description)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("build pay url: %w", err)
	}

	if err := s.WorkshopRepo.AttachInvoice(ctx, req.ID, inv.ID); err != nil {
		return PaymentLink{}, err
	}

	return PaymentLink{
		InvoiceID:     inv.ID,
		ProviderInvID: providerInvID,
		Amount:        inv.Amount,
		URL:           payURL,
	}, nil
}
