package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmcare-server-go/db"
	"farmcare-server-go/models"
)

// TicketStore is the storage used by the ticket routes. *db.RedisService
// implements it.
type TicketStore interface {
	AddTicket(ctx context.Context, ticket models.Ticket) (models.Ticket, error)
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	GetAllTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicketsByFarmer(ctx context.Context, farmerID string) ([]models.Ticket, error)
	GetTicketsByCCE(ctx context.Context, cceID string) ([]models.Ticket, error)
	UpdateTicket(ctx context.Context, ticketID string, update models.Ticket) (*models.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID string) error
	ImportTicketsFromExcel(ctx context.Context, file io.Reader) (int, error)
}

var _ TicketStore = (*db.RedisService)(nil)

const maxUploadBytes = 10 << 20

func ticketNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.Message{Message: "Ticket not found"})
}

// writeTickets answers with the list, never null.
func writeTickets(c *gin.Context, tickets []models.Ticket) {
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	c.JSON(http.StatusOK, tickets)
}

// getTickets handles GET /tickets
func (h *APIHandler) getTickets(c *gin.Context) error {
	tickets, err := h.Tickets.GetAllTickets(c.Request.Context())
	if err != nil {
		return err
	}
	writeTickets(c, tickets)
	return nil
}

// getTicketsByFarmer handles GET /tickets/farmer/:farmerId
func (h *APIHandler) getTicketsByFarmer(c *gin.Context) error {
	tickets, err := h.Tickets.GetTicketsByFarmer(c.Request.Context(), c.Param("farmerId"))
	if err != nil {
		return err
	}
	writeTickets(c, tickets)
	return nil
}

// getTicketsByCCE handles GET /tickets/cce/:cceId and, with a status
// segment, GET /tickets/cce/:cceId/status/:status.
func (h *APIHandler) getTicketsByCCE(c *gin.Context) error {
	tickets, err := h.Tickets.GetTicketsByCCE(c.Request.Context(), c.Param("cceId"))
	if err != nil {
		return err
	}

	if status := c.Param("status"); status != "" {
		filtered := make([]models.Ticket, 0, len(tickets))
		for _, t := range tickets {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tickets = filtered
	}
	writeTickets(c, tickets)
	return nil
}

// getTicket handles GET /tickets/:id
func (h *APIHandler) getTicket(c *gin.Context) error {
	ticket, err := h.Tickets.GetTicketByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrTicketNotFound) {
		ticketNotFound(c)
		return nil
	}
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, ticket)
	return nil
}

func bindTicket(c *gin.Context) (models.Ticket, error) {
	limitBody(c, maxJSONBytes)

	var ticket models.Ticket
	if err := c.ShouldBindJSON(&ticket); err != nil {
		return models.Ticket{}, fmt.Errorf("invalid request body: %w", err)
	}
	return ticket, nil
}

// createTicket handles POST /tickets
func (h *APIHandler) createTicket(c *gin.Context) error {
	ticket, err := bindTicket(c)
	if err != nil {
		return err
	}

	stored, err := h.Tickets.AddTicket(c.Request.Context(), ticket)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, stored)
	return nil
}

// updateTicket handles PUT /tickets/:id. Only the fields present in the body
// change.
func (h *APIHandler) updateTicket(c *gin.Context) error {
	update, err := bindTicket(c)
	if err != nil {
		return err
	}

	updated, err := h.Tickets.UpdateTicket(c.Request.Context(), c.Param("id"), update)
	if errors.Is(err, db.ErrTicketNotFound) {
		ticketNotFound(c)
		return nil
	}
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, updated)
	return nil
}

// deleteTicket handles DELETE /tickets/:id
func (h *APIHandler) deleteTicket(c *gin.Context) error {
	err := h.Tickets.DeleteTicket(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrTicketNotFound) {
		ticketNotFound(c)
		return nil
	}
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, models.Message{Message: "Ticket deleted successfully"})
	return nil
}

// importTickets handles POST /import/tickets with a multipart "file" field
// holding an .xlsx spreadsheet.
func (h *APIHandler) importTickets(c *gin.Context) error {
	const op = "handlers.API.importTickets"
	log := h.log.WithField("operation", op)

	limitBody(c, maxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return fmt.Errorf("error retrieving uploaded file: %w", err)
	}
	defer file.Close()

	log.WithField("filename", header.Filename).Info("received ticket spreadsheet")

	importedCount, err := h.Tickets.ImportTicketsFromExcel(c.Request.Context(), file)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": importedCount,
	})
	return nil
}
