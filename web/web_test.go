package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmcare-server-go/i18n"
	"farmcare-server-go/logging"
	"farmcare-server-go/models"
)

type fakeFarmers struct {
	farmers []models.Farmer
	err     error
	calls   int
}

func (f *fakeFarmers) FetchFarmers(context.Context) ([]models.Farmer, error) {
	f.calls++
	return f.farmers, f.err
}

type fakeTickets struct {
	tickets []models.Ticket
	err     error
}

func (f *fakeTickets) FetchTickets(context.Context) ([]models.Ticket, error) {
	return f.tickets, f.err
}

type fakeReports struct {
	report    string
	err       error
	requested []models.ReportType
}

func (f *fakeReports) GenerateReport(_ context.Context, rt models.ReportType) (string, error) {
	f.requested = append(f.requested, rt)
	return f.report, f.err
}

func newTestRouter(t *testing.T, farmers FarmerFetcher, tickets TicketFetcher, reports ReportGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	router, err := NewServer(farmers, tickets, reports, tr, "en", logging.Discard()).Router(logging.Discard())
	require.NoError(t, err)
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestDashboard(t *testing.T) {
	router := newTestRouter(t, &fakeFarmers{}, &fakeTickets{}, &fakeReports{})

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Welcome to the Customer Care Executive Dashboard!")
	for _, link := range []string{`href="/"`, `href="/farmers"`, `href="/tickets"`, `href="/reports"`} {
		assert.Contains(t, body, link)
	}
}

func TestFarmersPage(t *testing.T) {
	farmers := &fakeFarmers{farmers: []models.Farmer{
		{ID: "1", Name: "John Doe"},
		{ID: "2", Name: "Jane Smith", Contact: "555-0101", Crop: models.Crops{"rice", "millet"}},
	}}
	router := newTestRouter(t, farmers, &fakeTickets{}, &fakeReports{})

	w := get(router, "/farmers")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<th>id</th><th>name</th><th>contact</th><th>crop</th>")
	assert.Contains(t, body, "<td>1</td><td>John Doe</td><td></td><td></td>")
	assert.Contains(t, body, "<td>2</td><td>Jane Smith</td><td>555-0101</td><td>rice, millet</td>")
	assert.Contains(t, body, `<a href="/farmers" class="active">`)
	assert.Equal(t, 1, farmers.calls)
}

func TestFarmersPageError(t *testing.T) {
	router := newTestRouter(t, &fakeFarmers{err: errors.New("connection refused")}, &fakeTickets{}, &fakeReports{})

	w := get(router, "/farmers")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Failed to fetch farmers. Please try again later.")
	assert.NotContains(t, w.Body.String(), "<table>")
}

func TestFarmersPageEmpty(t *testing.T) {
	router := newTestRouter(t, &fakeFarmers{}, &fakeTickets{}, &fakeReports{})

	w := get(router, "/farmers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No records.")
}

func TestTicketsPage(t *testing.T) {
	tickets := &fakeTickets{tickets: []models.Ticket{{
		ID:          "T-1",
		FarmerID:    "1",
		Status:      models.TicketStatusOpen,
		Description: "Pump <broken>",
		CreatedAt:   time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}}}
	router := newTestRouter(t, &fakeFarmers{}, tickets, &fakeReports{})

	w := get(router, "/tickets")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<td>T-1</td><td>1</td><td>open</td><td>Pump &lt;broken&gt;</td><td>2024-02-01T10:00:00Z</td>")
}

func TestTicketsPageError(t *testing.T) {
	router := newTestRouter(t, &fakeFarmers{}, &fakeTickets{err: errors.New("404")}, &fakeReports{})

	w := get(router, "/tickets")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Failed to fetch tickets. Please try again later.")
}

func TestReportsPageForm(t *testing.T) {
	reports := &fakeReports{}
	router := newTestRouter(t, &fakeFarmers{}, &fakeTickets{}, reports)

	w := get(router, "/reports")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<option value="daily" selected>daily</option>`)
	assert.Contains(t, body, `<option value="yearly">yearly</option>`)
	assert.Contains(t, body, "Generate Report")
	assert.NotContains(t, body, "<pre>")
	assert.Empty(t, reports.requested)
}

func TestReportsPageGenerate(t *testing.T) {
	reports := &fakeReports{report: "Weekly: 4 tickets opened"}
	router := newTestRouter(t, &fakeFarmers{}, &fakeTickets{}, reports)

	w := get(router, "/reports?type=weekly")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<pre>Weekly: 4 tickets opened</pre>")
	assert.Contains(t, body, `<option value="weekly" selected>weekly</option>`)
	assert.Equal(t, []models.ReportType{models.ReportWeekly}, reports.requested)
}

func TestReportsPageErrors(t *testing.T) {
	reports := &fakeReports{err: errors.New("not found")}
	router := newTestRouter(t, &fakeFarmers{}, &fakeTickets{}, reports)

	w := get(router, "/reports?type=daily")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Failed to generate report. Please try again later.")

	w = get(router, "/reports?type=hourly")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Unknown report type hourly.")
	assert.Len(t, reports.requested, 1)
}

func TestCell(t *testing.T) {
	row := map[string]any{"id": 7, "name": "Asha", "crop": nil}

	assert.Equal(t, "7", Cell(row, "id"))
	assert.Equal(t, "Asha", Cell(row, "name"))
	assert.Equal(t, "", Cell(row, "crop"))
	assert.Equal(t, "", Cell(row, "contact"))
}
