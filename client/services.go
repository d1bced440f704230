package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"farmcare-server-go/models"
)

// FarmerService talks to the /farmers routes.
type FarmerService struct {
	api *Client
	log *logrus.Entry
}

func NewFarmerService(api *Client, log *logrus.Logger) *FarmerService {
	return &FarmerService{api: api, log: logrus.NewEntry(log)}
}

func farmerPath(id string) string {
	return "/farmers/" + url.PathEscape(id)
}

// FetchFarmers returns every farmer.
func (s *FarmerService) FetchFarmers(ctx context.Context) ([]models.Farmer, error) {
	const op = "client.FarmerService.FetchFarmers"

	var farmers []models.Farmer
	if err := s.api.Get(ctx, "/farmers", &farmers); err != nil {
		s.log.WithField("operation", op).WithError(err).Error("Error fetching farmers")
		return nil, fmt.Errorf("fetch farmers: %w", err)
	}
	return farmers, nil
}

// GetFarmerByID returns one farmer.
func (s *FarmerService) GetFarmerByID(ctx context.Context, id string) (*models.Farmer, error) {
	const op = "client.FarmerService.GetFarmerByID"

	var farmer models.Farmer
	if err := s.api.Get(ctx, farmerPath(id), &farmer); err != nil {
		s.log.WithField("operation", op).WithField("farmer_id", id).WithError(err).Error("Error fetching farmer")
		return nil, fmt.Errorf("get farmer %s: %w", id, err)
	}
	return &farmer, nil
}

// CreateFarmer sends a new farmer and returns what the API answered with.
func (s *FarmerService) CreateFarmer(ctx context.Context, farmer models.Farmer) (*models.Farmer, error) {
	const op = "client.FarmerService.CreateFarmer"

	var created models.Farmer
	if err := s.api.Post(ctx, "/farmers", farmer, &created); err != nil {
		s.log.WithField("operation", op).WithError(err).Error("Error creating farmer")
		return nil, fmt.Errorf("create farmer: %w", err)
	}
	return &created, nil
}

// UpdateFarmer sends the non-empty fields of update for farmer id.
func (s *FarmerService) UpdateFarmer(ctx context.Context, id string, update models.Farmer) (*models.Farmer, error) {
	const op = "client.FarmerService.UpdateFarmer"

	var updated models.Farmer
	if err := s.api.Put(ctx, farmerPath(id), update, &updated); err != nil {
		s.log.WithField("operation", op).WithField("farmer_id", id).WithError(err).Error("Error updating farmer")
		return nil, fmt.Errorf("update farmer %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteFarmer deletes farmer id and returns the API's confirmation.
func (s *FarmerService) DeleteFarmer(ctx context.Context, id string) (*models.Message, error) {
	const op = "client.FarmerService.DeleteFarmer"

	var msg models.Message
	if err := s.api.Delete(ctx, farmerPath(id), &msg); err != nil {
		s.log.WithField("operation", op).WithField("farmer_id", id).WithError(err).Error("Error deleting farmer")
		return nil, fmt.Errorf("delete farmer %s: %w", id, err)
	}
	return &msg, nil
}

// TicketService talks to the /tickets routes.
type TicketService struct {
	api *Client
	log *logrus.Entry
}

func NewTicketService(api *Client, log *logrus.Logger) *TicketService {
	return &TicketService{api: api, log: logrus.NewEntry(log)}
}

// FetchTickets returns every ticket.
func (s *TicketService) FetchTickets(ctx context.Context) ([]models.Ticket, error) {
	const op = "client.TicketService.FetchTickets"

	var tickets []models.Ticket
	if err := s.api.Get(ctx, "/tickets", &tickets); err != nil {
		s.log.WithField("operation", op).WithError(err).Error("Error fetching tickets")
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}
	return tickets, nil
}

// FetchTicketsByFarmer returns the tickets raised by one farmer.
func (s *TicketService) FetchTicketsByFarmer(ctx context.Context, farmerID string) ([]models.Ticket, error) {
	const op = "client.TicketService.FetchTicketsByFarmer"

	var tickets []models.Ticket
	if err := s.api.Get(ctx, "/tickets/farmer/"+url.PathEscape(farmerID), &tickets); err != nil {
		s.log.WithField("operation", op).WithField("farmer_id", farmerID).WithError(err).Error("Error fetching tickets")
		return nil, fmt.Errorf("fetch tickets of farmer %s: %w", farmerID, err)
	}
	return tickets, nil
}

// FetchTicketsByCCE returns the tickets assigned to one executive, narrowed
// to status when it is not empty.
func (s *TicketService) FetchTicketsByCCE(ctx context.Context, cceID, status string) ([]models.Ticket, error) {
	const op = "client.TicketService.FetchTicketsByCCE"

	path := "/tickets/cce/" + url.PathEscape(cceID)
	if status != "" {
		path += "/status/" + url.PathEscape(status)
	}

	var tickets []models.Ticket
	if err := s.api.Get(ctx, path, &tickets); err != nil {
		s.log.WithField("operation", op).WithField("cce_id", cceID).WithError(err).Error("Error fetching tickets")
		return nil, fmt.Errorf("fetch tickets of cce %s: %w", cceID, err)
	}
	return tickets, nil
}

// UpdateTicket sends the fields to change and returns the stored ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, update models.Ticket) (*models.Ticket, error) {
	const op = "client.TicketService.UpdateTicket"

	var ticket models.Ticket
	if err := s.api.Put(ctx, "/tickets/"+url.PathEscape(id), update, &ticket); err != nil {
		s.log.WithField("operation", op).WithField("ticket_id", id).WithError(err).Error("Error updating ticket")
		return nil, fmt.Errorf("update ticket %s: %w", id, err)
	}
	return &ticket, nil
}

// DeleteTicket removes a ticket.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) (*models.Message, error) {
	const op = "client.TicketService.DeleteTicket"

	var msg models.Message
	if err := s.api.Delete(ctx, "/tickets/"+url.PathEscape(id), &msg); err != nil {
		s.log.WithField("operation", op).WithField("ticket_id", id).WithError(err).Error("Error deleting ticket")
		return nil, fmt.Errorf("delete ticket %s: %w", id, err)
	}
	return &msg, nil
}

// ReportService talks to the /reports route.
type ReportService struct {
	api *Client
	log *logrus.Entry
}

func NewReportService(api *Client, log *logrus.Logger) *ReportService {
	return &ReportService{api: api, log: logrus.NewEntry(log)}
}

// GenerateReport returns the report body for reportType as sent by the API.
func (s *ReportService) GenerateReport(ctx context.Context, reportType models.ReportType) (string, error) {
	const op = "client.ReportService.GenerateReport"

	query := url.Values{"type": {string(reportType)}}
	data, err := s.api.GetRaw(ctx, "/reports?"+query.Encode())
	if err != nil {
		s.log.WithField("operation", op).WithField("type", reportType).WithError(err).Error("Error generating report")
		return "", fmt.Errorf("generate %s report: %w", reportType, err)
	}
	return string(data), nil
}
