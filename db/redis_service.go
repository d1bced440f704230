package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"farmcare-server-go/config"
	"farmcare-server-go/models"
)

const (
	ticketsKey          = "tickets" // Set: Stores all ticket IDs
	ticketInfoPrefix    = "ticket:" // Hash prefix: ticket:{id} -> stores ticket details
	farmerTicketsPrefix = "farmer:" // Set prefix: farmer:{id}:tickets -> ticket IDs raised by a farmer
	cceTicketsPrefix    = "cce:"    // Set prefix: cce:{id}:tickets -> ticket IDs assigned to an executive
)

// ErrTicketNotFound is returned when no ticket has the requested ID.
var ErrTicketNotFound = errors.New("ticket not found")

// RedisService stores tickets in Redis
type RedisService struct {
	Client *redis.Client
	log    *logrus.Entry
	now    func() time.Time
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, log *logrus.Logger) *RedisService {
	return &RedisService{
		Client: client,
		log:    log.WithField("component", "db.RedisService"),
		now:    time.Now,
	}
}

func getTicketInfoKey(ticketID models.ID) string {
	return ticketInfoPrefix + string(ticketID)
}

func getFarmerTicketsKey(farmerID models.ID) string {
	return farmerTicketsPrefix + string(farmerID) + ":tickets"
}

func getCCETicketsKey(cceID models.ID) string {
	return cceTicketsPrefix + string(cceID) + ":tickets"
}

// withDefaults fills the server-assigned fields of a new ticket.
func withDefaults(t models.Ticket, now time.Time) models.Ticket {
	if t.ID == "" {
		t.ID = models.ID(uuid.NewString())
	}
	if t.Status == "" {
		t.Status = models.TicketStatusOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC()
	}
	return t
}

// applyUpdate copies the non-empty fields of update onto t.
func applyUpdate(t models.Ticket, update models.Ticket, now time.Time) models.Ticket {
	if update.FarmerID != "" {
		t.FarmerID = update.FarmerID
	}
	if update.CCEID != "" {
		t.CCEID = update.CCEID
	}
	if update.Status != "" {
		t.Status = update.Status
	}
	if update.Description != "" {
		t.Description = update.Description
	}
	updated := now.UTC()
	t.UpdatedAt = &updated
	return t
}

func ticketToHash(t models.Ticket) map[string]interface{} {
	hash := map[string]interface{}{
		"id":          string(t.ID),
		"farmerId":    string(t.FarmerID),
		"cceId":       string(t.CCEID),
		"status":      t.Status,
		"description": t.Description,
		"createdAt":   t.CreatedAt.Format(time.RFC3339Nano),
	}
	if t.UpdatedAt != nil {
		hash["updatedAt"] = t.UpdatedAt.Format(time.RFC3339Nano)
	}
	return hash
}

func ticketFromHash(data map[string]string) (models.Ticket, error) {
	t := models.Ticket{
		ID:          models.ID(data["id"]),
		FarmerID:    models.ID(data["farmerId"]),
		CCEID:       models.ID(data["cceId"]),
		Status:      data["status"],
		Description: data["description"],
	}
	if raw := data["createdAt"]; raw != "" {
		created, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("ticket %s has invalid createdAt %q: %w", t.ID, raw, err)
		}
		t.CreatedAt = created
	}
	if raw := data["updatedAt"]; raw != "" {
		updated, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("ticket %s has invalid updatedAt %q: %w", t.ID, raw, err)
		}
		t.UpdatedAt = &updated
	}
	return t, nil
}

// --- Ticket Operations ---

// saveTicket writes ticket and keeps the farmer and CCE sets in step with
// it. prev is the stored version being replaced, or nil.
func (s *RedisService) saveTicket(ctx context.Context, ticket models.Ticket, prev *models.Ticket) error {
	pipe := s.Client.TxPipeline()
	if prev != nil {
		if prev.FarmerID != "" && prev.FarmerID != ticket.FarmerID {
			pipe.SRem(ctx, getFarmerTicketsKey(prev.FarmerID), string(ticket.ID))
		}
		if prev.CCEID != "" && prev.CCEID != ticket.CCEID {
			pipe.SRem(ctx, getCCETicketsKey(prev.CCEID), string(ticket.ID))
		}
	}

	// Add ticket ID to the global set of tickets
	pipe.SAdd(ctx, ticketsKey, string(ticket.ID))
	if ticket.FarmerID != "" {
		pipe.SAdd(ctx, getFarmerTicketsKey(ticket.FarmerID), string(ticket.ID))
	}
	if ticket.CCEID != "" {
		pipe.SAdd(ctx, getCCETicketsKey(ticket.CCEID), string(ticket.ID))
	}
	// Store ticket details in a Hash, replacing any previous fields
	pipe.Del(ctx, getTicketInfoKey(ticket.ID))
	pipe.HSet(ctx, getTicketInfoKey(ticket.ID), ticketToHash(ticket))

	_, err := pipe.Exec(ctx)
	return err
}

// lookup returns the stored ticket, nil when there is none.
func (s *RedisService) lookup(ctx context.Context, ticketID models.ID) (*models.Ticket, error) {
	prev, err := s.GetTicketByID(ctx, string(ticketID))
	if errors.Is(err, ErrTicketNotFound) {
		return nil, nil
	}
	return prev, err
}

// AddTicket stores a ticket, assigning id, status and creation time when missing
func (s *RedisService) AddTicket(ctx context.Context, ticket models.Ticket) (models.Ticket, error) {
	ticket = withDefaults(ticket, s.now())

	prev, err := s.lookup(ctx, ticket.ID)
	if err != nil {
		return models.Ticket{}, err
	}
	if err := s.saveTicket(ctx, ticket, prev); err != nil {
		s.log.WithError(err).WithField("ticket_id", ticket.ID).Error("failed to add ticket")
		return models.Ticket{}, fmt.Errorf("failed to add ticket to Redis: %w", err)
	}
	s.log.WithField("ticket_id", ticket.ID).Debug("added ticket")
	return ticket, nil
}

// UpdateTicket changes the non-empty fields of update on an existing ticket
// and stamps UpdatedAt.
func (s *RedisService) UpdateTicket(ctx context.Context, ticketID string, update models.Ticket) (*models.Ticket, error) {
	prev, err := s.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket := applyUpdate(*prev, update, s.now())
	if err := s.saveTicket(ctx, ticket, prev); err != nil {
		s.log.WithError(err).WithField("ticket_id", ticketID).Error("failed to update ticket")
		return nil, fmt.Errorf("failed to update ticket in Redis: %w", err)
	}
	return &ticket, nil
}

// DeleteTicket removes a ticket and its set memberships
func (s *RedisService) DeleteTicket(ctx context.Context, ticketID string) error {
	prev, err := s.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}

	pipe := s.Client.TxPipeline()
	pipe.Del(ctx, getTicketInfoKey(prev.ID))
	pipe.SRem(ctx, ticketsKey, ticketID)
	if prev.FarmerID != "" {
		pipe.SRem(ctx, getFarmerTicketsKey(prev.FarmerID), ticketID)
	}
	if prev.CCEID != "" {
		pipe.SRem(ctx, getCCETicketsKey(prev.CCEID), ticketID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.WithError(err).WithField("ticket_id", ticketID).Error("failed to delete ticket")
		return fmt.Errorf("failed to delete ticket from Redis: %w", err)
	}
	return nil
}

// GetTicketByID retrieves a ticket by its ID
func (s *RedisService) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	data, err := s.Client.HGetAll(ctx, getTicketInfoKey(models.ID(ticketID))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrTicketNotFound
	}

	ticket, err := ticketFromHash(data)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetAllTickets retrieves all tickets
func (s *RedisService) GetAllTickets(ctx context.Context) ([]models.Ticket, error) {
	return s.getTicketsInSet(ctx, ticketsKey)
}

// GetTicketsByFarmer retrieves the tickets raised by one farmer
func (s *RedisService) GetTicketsByFarmer(ctx context.Context, farmerID string) ([]models.Ticket, error) {
	return s.getTicketsInSet(ctx, getFarmerTicketsKey(models.ID(farmerID)))
}

// GetTicketsByCCE retrieves the tickets assigned to one customer care executive
func (s *RedisService) GetTicketsByCCE(ctx context.Context, cceID string) ([]models.Ticket, error) {
	return s.getTicketsInSet(ctx, getCCETicketsKey(models.ID(cceID)))
}

func (s *RedisService) getTicketsInSet(ctx context.Context, key string) ([]models.Ticket, error) {
	ids, err := s.Client.SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Ticket{}, nil
		}
		return nil, fmt.Errorf("failed to get ticket IDs from Redis set %s: %w", key, err)
	}

	tickets := make([]models.Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, err := s.GetTicketByID(ctx, id)
		if err != nil {
			// Skip entries whose details can't be read; the rest are still useful
			s.log.WithError(err).WithField("ticket_id", id).Warn("skipping ticket")
			continue
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, nil
}

// Count returns the number of stored tickets.
func (s *RedisService) Count(ctx context.Context) (int64, error) {
	n, err := s.Client.SCard(ctx, ticketsKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}

// --- Excel Import ---

// ImportTicketsFromExcel reads the first sheet of an Excel file and stores
// one ticket per row. Columns: id, farmerId, status, description, createdAt.
func (s *RedisService) ImportTicketsFromExcel(ctx context.Context, file io.Reader) (int, error) {
	rows, err := readFirstSheet(file)
	if err != nil {
		return 0, err
	}

	tickets, skipped := ticketsFromRows(rows)
	if skipped > 0 {
		s.log.WithField("skipped", skipped).Warn("skipped spreadsheet rows without farmerId or description")
	}

	imported := 0
	for _, ticket := range tickets {
		if _, err := s.AddTicket(ctx, ticket); err != nil {
			// Keep going; one bad row should not abort the whole import
			s.log.WithError(err).WithField("ticket_id", ticket.ID).Error("failed to import ticket")
			continue
		}
		imported++
	}

	s.log.WithField("count", imported).Info("imported tickets")
	return imported, nil
}

func readFirstSheet(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	return rows, nil
}

// ticketsFromRows converts spreadsheet rows to tickets. The first row is a
// header. Rows missing farmerId or description are skipped and counted.
func ticketsFromRows(rows [][]string) ([]models.Ticket, int) {
	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var tickets []models.Ticket
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}

		t := models.Ticket{
			ID:          models.ID(cell(row, 0)),
			FarmerID:    models.ID(cell(row, 1)),
			Status:      cell(row, 2),
			Description: cell(row, 3),
		}
		if t.FarmerID == "" || t.Description == "" {
			skipped++
			continue
		}
		if raw := cell(row, 4); raw != "" {
			if created, err := time.Parse(time.RFC3339, raw); err == nil {
				t.CreatedAt = created
			} else if created, err := time.Parse(time.DateOnly, raw); err == nil {
				t.CreatedAt = created
			}
		}
		tickets = append(tickets, t)
	}
	return tickets, skipped
}

// --- Seed Data ---

// SeedIfEmpty adds sample tickets when the store holds none.
func (s *RedisService) SeedIfEmpty(ctx context.Context) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.log.WithField("count", count).Info("tickets found, skipping seed data")
		return nil
	}

	s.log.Info("no tickets found, adding seed data")
	seed := []models.Ticket{
		{ID: "T-1001", FarmerID: "1", CCEID: "cce-1", Status: models.TicketStatusOpen, Description: "Irrigation pump not starting"},
		{ID: "T-1002", FarmerID: "2", CCEID: "cce-2", Status: models.TicketStatusInProgress, Description: "Seed delivery delayed"},
		{ID: "T-1003", FarmerID: "1", Status: models.TicketStatusClosed, Description: "Subsidy form query"},
	}
	for _, t := range seed {
		if _, err := s.AddTicket(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
