package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"farmcare-server-go/i18n"
	"farmcare-server-go/middleware"
	"farmcare-server-go/models"
)

//go:embed templates/*.html
var templates embed.FS

type FarmerFetcher interface {
	FetchFarmers(ctx context.Context) ([]models.Farmer, error)
}

type TicketFetcher interface {
	FetchTickets(ctx context.Context) ([]models.Ticket, error)
}

type ReportGenerator interface {
	GenerateReport(ctx context.Context, reportType models.ReportType) (string, error)
}

// Server renders the customer-care pages. It holds no per-request state.
type Server struct {
	farmers FarmerFetcher
	tickets TicketFetcher
	reports ReportGenerator
	tr      *i18n.Translations
	lang    string
	log     *logrus.Entry
}

func NewServer(farmers FarmerFetcher, tickets TicketFetcher, reports ReportGenerator, tr *i18n.Translations, lang string, log *logrus.Logger) *Server {
	return &Server{
		farmers: farmers,
		tickets: tickets,
		reports: reports,
		tr:      tr,
		lang:    lang,
		log:     logrus.NewEntry(log),
	}
}

// page is the part of every view the layout reads.
type page struct {
	Lang   string
	Title  string // message id
	Active string // nav entry to highlight
	Error  string
}

type listView struct {
	page
	Table Table
}

type reportView struct {
	page
	Select SelectInput
	Report string
}

func (s *Server) newPage(title, active string) page {
	return page{Lang: s.lang, Title: title, Active: active}
}

func (s *Server) parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"t":    s.tr.T,
		"cell": Cell,
	}
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Router returns the engine serving the pages.
func (s *Server) Router(log *logrus.Logger) (*gin.Engine, error) {
	tmpl, err := s.parseTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.dashboard)
	router.GET("/farmers", s.farmersPage)
	router.GET("/tickets", s.ticketsPage)
	router.GET("/reports", s.reportsPage)

	return router, nil
}

func (s *Server) dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", s.newPage("dashboard_title", "dashboard"))
}

func (s *Server) farmersPage(c *gin.Context) {
	const op = "web.Server.farmersPage"

	view := listView{page: s.newPage("farmers_title", "farmers")}
	farmers, err := s.farmers.FetchFarmers(c.Request.Context())
	if err != nil {
		s.log.WithField("operation", op).WithError(err).Warn("rendering farmers page without data")
		view.Error = s.tr.T("farmers_fetch_error")
		c.HTML(http.StatusBadGateway, "farmers.html", view)
		return
	}

	view.Table = FarmerTable(farmers)
	c.HTML(http.StatusOK, "farmers.html", view)
}

func (s *Server) ticketsPage(c *gin.Context) {
	const op = "web.Server.ticketsPage"

	view := listView{page: s.newPage("tickets_title", "tickets")}
	tickets, err := s.tickets.FetchTickets(c.Request.Context())
	if err != nil {
		s.log.WithField("operation", op).WithError(err).Warn("rendering tickets page without data")
		view.Error = s.tr.T("tickets_fetch_error")
		c.HTML(http.StatusBadGateway, "tickets.html", view)
		return
	}

	view.Table = TicketTable(tickets)
	c.HTML(http.StatusOK, "tickets.html", view)
}

// reportsPage shows the report form and, when a type was submitted, the
// generated report.
func (s *Server) reportsPage(c *gin.Context) {
	const op = "web.Server.reportsPage"

	options := make([]string, 0, len(models.ReportTypes))
	for _, rt := range models.ReportTypes {
		options = append(options, string(rt))
	}

	view := reportView{
		page: s.newPage("reports_title", "reports"),
		Select: SelectInput{
			Label:    s.tr.T("report_type_label"),
			Name:     "type",
			Options:  options,
			Selected: string(models.ReportDaily),
		},
	}

	requested, submitted := c.GetQuery("type")
	if !submitted {
		c.HTML(http.StatusOK, "reports.html", view)
		return
	}

	reportType, err := models.ParseReportType(requested)
	if err != nil {
		view.Error = s.tr.GetMessage("report_invalid_type", map[string]interface{}{"Type": requested})
		c.HTML(http.StatusBadRequest, "reports.html", view)
		return
	}
	view.Select.Selected = string(reportType)

	report, err := s.reports.GenerateReport(c.Request.Context(), reportType)
	if err != nil {
		s.log.WithField("operation", op).WithError(err).Warn("report generation failed")
		view.Error = s.tr.T("report_fetch_error")
		c.HTML(http.StatusBadGateway, "reports.html", view)
		return
	}

	view.Report = report
	c.HTML(http.StatusOK, "reports.html", view)
}
