package web

import (
	"fmt"

	"farmcare-server-go/models"
)

var (
	FarmerColumns = []string{"id", "name", "contact", "crop"}
	TicketColumns = []string{"id", "farmerId", "cceId", "status", "description", "createdAt"}
)

// Table is a column-driven view of records. Each cell is looked up in its
// row by column name.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// Cell returns the printed value of column col in row, or "" when the row
// has no such key.
func Cell(row map[string]any, col string) string {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func FarmerTable(farmers []models.Farmer) Table {
	rows := make([]map[string]any, 0, len(farmers))
	for _, f := range farmers {
		rows = append(rows, f.Record())
	}
	return Table{Columns: FarmerColumns, Rows: rows}
}

func TicketTable(tickets []models.Ticket) Table {
	rows := make([]map[string]any, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, t.Record())
	}
	return Table{Columns: TicketColumns, Rows: rows}
}

// SelectInput is the data of the select partial.
type SelectInput struct {
	Label    string
	Name     string
	Options  []string
	Selected string
}
