package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is a record identifier. The backend emits farmer ids both as JSON
// numbers (list) and as JSON strings (item), so decoding accepts either.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Crops holds a farmer's crops; "crop" may arrive as a single string or a list.
type Crops []string

// UnmarshalJSON accepts a JSON string or an array of strings.
func (c *Crops) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Crops{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("crop must be a string or a list of strings: %w", err)
	}
	*c = list
	return nil
}

// Farmer represents a farmer record
type Farmer struct {
	ID      ID     `json:"id,omitempty"`      // Server-assigned in principle
	Name    string `json:"name,omitempty"`    // Farmer name
	Contact string `json:"contact,omitempty"` // Phone number or similar
	Crop    Crops  `json:"crop,omitempty"`    // Crops grown
}

// Record returns the farmer as a generic row keyed by JSON field name.
// Absent optional fields are left out.
func (f Farmer) Record() map[string]any {
	row := map[string]any{
		"id":   string(f.ID),
		"name": f.Name,
	}
	if f.Contact != "" {
		row["contact"] = f.Contact
	}
	if len(f.Crop) > 0 {
		row["crop"] = strings.Join(f.Crop, ", ")
	}
	return row
}

// Ticket statuses
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusClosed     = "closed"
)

// Ticket represents a customer-care ticket raised for a farmer
type Ticket struct {
	ID          ID         `json:"id"`              // Unique ticket ID
	FarmerID    ID         `json:"farmerId"`        // Not checked against any farmer
	CCEID       ID         `json:"cceId,omitempty"` // Customer care executive handling it
	Status      string     `json:"status"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"` // Set by the last update, if any
}

// Record returns the ticket as a generic row keyed by JSON field name.
func (t Ticket) Record() map[string]any {
	row := map[string]any{
		"id":          string(t.ID),
		"farmerId":    string(t.FarmerID),
		"status":      t.Status,
		"description": t.Description,
	}
	if t.CCEID != "" {
		row["cceId"] = string(t.CCEID)
	}
	if !t.CreatedAt.IsZero() {
		row["createdAt"] = t.CreatedAt.Format(time.RFC3339)
	}
	if t.UpdatedAt != nil {
		row["updatedAt"] = t.UpdatedAt.Format(time.RFC3339)
	}
	return row
}

// ReportType selects the period a report covers
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
)

// ReportTypes lists the report types in display order.
var ReportTypes = []ReportType{ReportDaily, ReportWeekly, ReportMonthly, ReportYearly}

// ParseReportType returns the ReportType named by s.
func ParseReportType(s string) (ReportType, error) {
	for _, t := range ReportTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// Message is the body returned by operations that have nothing else to say
type Message struct {
	Message string `json:"message"`
}

// ErrorBody is the body of an unexpected server error
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
