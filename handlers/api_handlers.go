package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"farmcare-server-go/models"
)

// APIHandler holds the dependencies for API handlers. Tickets is nil when the
// ticket store is disabled.
type APIHandler struct {
	Tickets TicketStore
	log     *logrus.Entry
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(tickets TicketStore, log *logrus.Logger) *APIHandler {
	return &APIHandler{
		Tickets: tickets,
		log:     logrus.NewEntry(log),
	}
}

// EnrichRoutes registers the farmer routes, and the ticket routes when a
// ticket store is configured.
func (h *APIHandler) EnrichRoutes(router *gin.Engine) {
	farmers := router.Group("/farmers")
	farmers.GET("", h.handle("handlers.API.getFarmers", "Error fetching farmers", h.getFarmers))
	farmers.POST("", h.handle("handlers.API.createFarmer", "Error creating farmer", h.createFarmer))
	farmers.GET("/:id", h.handle("handlers.API.getFarmer", "Error fetching farmer", h.getFarmer))
	farmers.PUT("/:id", h.handle("handlers.API.updateFarmer", "Error updating farmer", h.updateFarmer))
	farmers.DELETE("/:id", h.handle("handlers.API.deleteFarmer", "Error deleting farmer", h.deleteFarmer))

	if h.Tickets != nil {
		tickets := router.Group("/tickets")
		tickets.GET("", h.handle("handlers.API.getTickets", "Error fetching tickets", h.getTickets))
		tickets.POST("", h.handle("handlers.API.createTicket", "Error creating ticket", h.createTicket))
		tickets.GET("/farmer/:farmerId", h.handle("handlers.API.getTicketsByFarmer", "Error fetching tickets", h.getTicketsByFarmer))
		tickets.GET("/cce/:cceId", h.handle("handlers.API.getTicketsByCCE", "Error fetching tickets", h.getTicketsByCCE))
		tickets.GET("/cce/:cceId/status/:status", h.handle("handlers.API.getTicketsByCCE", "Error fetching tickets", h.getTicketsByCCE))
		tickets.GET("/:id", h.handle("handlers.API.getTicket", "Error fetching ticket", h.getTicket))
		tickets.PUT("/:id", h.handle("handlers.API.updateTicket", "Error updating ticket", h.updateTicket))
		tickets.DELETE("/:id", h.handle("handlers.API.deleteTicket", "Error deleting ticket", h.deleteTicket))

		router.POST("/import/tickets", h.handle("handlers.API.importTickets", "Error importing tickets", h.importTickets))
	}

	router.GET("/ping", PingHandler)
}

// --- Farmer Handlers ---

// stubFarmers is the fixed list served by GET /farmers
var stubFarmers = []gin.H{
	{"id": 1, "name": "John Doe"},
	{"id": 2, "name": "Jane Smith"},
}

const stubFarmerName = "John Doe"

// getFarmers handles GET /farmers
func (h *APIHandler) getFarmers(c *gin.Context) error {
	c.JSON(http.StatusOK, stubFarmers)
	return nil
}

// createFarmer handles POST /farmers. Nothing is stored; the body comes back
// as sent. Only an object or an array is accepted.
func (h *APIHandler) createFarmer(c *gin.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		c.JSON(http.StatusCreated, gin.H{})
		return nil
	}
	if !json.Valid(body) {
		return errors.New("request body is not valid JSON")
	}
	if body[0] != '{' && body[0] != '[' {
		return errors.New("request body must be a JSON object or array")
	}

	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
	return nil
}

// getFarmer handles GET /farmers/:id
func (h *APIHandler) getFarmer(c *gin.Context) error {
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "name": stubFarmerName})
	return nil
}

// updateFarmer handles PUT /farmers/:id. The body is merged over {id};
// an id inside the body wins over the path.
func (h *APIHandler) updateFarmer(c *gin.Context) error {
	update, err := decodeObject(c)
	if err != nil {
		return err
	}

	merged := gin.H{"id": c.Param("id")}
	for k, v := range update {
		merged[k] = v
	}
	c.JSON(http.StatusOK, merged)
	return nil
}

// deleteFarmer handles DELETE /farmers/:id
func (h *APIHandler) deleteFarmer(c *gin.Context) error {
	c.JSON(http.StatusOK, models.Message{Message: "Farmer deleted successfully"})
	return nil
}

// --- Ping Handler ---

func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.Message{Message: "Pong!"})
}

const maxJSONBytes = 1 << 20

// limitBody caps what handlers may read from the request body.
func limitBody(c *gin.Context, n int64) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
	}
}

// readBody returns the request body with surrounding whitespace removed.
func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	limitBody(c, maxJSONBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return bytes.TrimSpace(body), nil
}

// decodeObject reads a JSON object body. Numbers are kept as json.Number so
// they are written back exactly as received. An empty body is an empty object.
func decodeObject(c *gin.Context) (map[string]any, error) {
	body, err := readBody(c)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("request body is not a JSON object: %w", err)
	}
	if dec.More() {
		return nil, errors.New("request body holds more than one JSON value")
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}
