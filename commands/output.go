package commands

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"farmcare-server-go/web"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
)

// printTable writes t as aligned columns with a coloured header line.
func printTable(out io.Writer, t web.Table) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(out, "No records.")
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.Columns, "\t")))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = web.Cell(row, col)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, rest, _ := strings.Cut(buf.String(), "\n")
	if _, err := headerColor.Fprintln(out, header); err != nil {
		return err
	}
	_, err := io.WriteString(out, rest)
	return err
}

func printMessage(out io.Writer, msg string) error {
	_, err := successColor.Fprintln(out, msg)
	return err
}
