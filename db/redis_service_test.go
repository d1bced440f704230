package db

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"farmcare-server-go/config"
	"farmcare-server-go/logging"
	"farmcare-server-go/models"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisService(client, logging.Discard())
	s.now = func() time.Time { return fixedNow }
	return s, mr
}

func excelFile(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ticket:T-1", getTicketInfoKey("T-1"))
	assert.Equal(t, "farmer:7:tickets", getFarmerTicketsKey("7"))
	assert.Equal(t, "cce:cce-1:tickets", getCCETicketsKey("cce-1"))
}

func TestWithDefaults(t *testing.T) {
	got := withDefaults(models.Ticket{FarmerID: "1", Description: "pump"}, fixedNow)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, models.TicketStatusOpen, got.Status)
	assert.Equal(t, fixedNow, got.CreatedAt)

	created := fixedNow.Add(-time.Hour)
	kept := withDefaults(models.Ticket{ID: "T-9", Status: models.TicketStatusClosed, CreatedAt: created}, fixedNow)
	assert.Equal(t, models.ID("T-9"), kept.ID)
	assert.Equal(t, models.TicketStatusClosed, kept.Status)
	assert.Equal(t, created, kept.CreatedAt)
}

func TestTicketHashConversion(t *testing.T) {
	in := models.Ticket{
		ID:          "T-1",
		FarmerID:    "2",
		CCEID:       "cce-4",
		Status:      models.TicketStatusInProgress,
		Description: "Seed delivery delayed",
		CreatedAt:   fixedNow,
	}

	hash := map[string]string{}
	for k, v := range ticketToHash(in) {
		hash[k] = v.(string)
	}
	out, err := ticketFromHash(hash)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.NotContains(t, hash, "updatedAt")

	updated := fixedNow.Add(time.Hour)
	in.UpdatedAt = &updated
	hash = map[string]string{}
	for k, v := range ticketToHash(in) {
		hash[k] = v.(string)
	}
	out, err = ticketFromHash(hash)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	hash["updatedAt"] = "later"
	_, err = ticketFromHash(hash)
	assert.ErrorContains(t, err, "invalid updatedAt")

	hash["createdAt"] = "yesterday"
	_, err = ticketFromHash(hash)
	assert.ErrorContains(t, err, "invalid createdAt")
}

func TestApplyUpdate(t *testing.T) {
	base := models.Ticket{ID: "T-1", FarmerID: "1", CCEID: "cce-1", Status: models.TicketStatusOpen, Description: "Pump broken", CreatedAt: fixedNow}
	later := fixedNow.Add(2 * time.Hour)

	got := applyUpdate(base, models.Ticket{Status: models.TicketStatusClosed}, later)
	assert.Equal(t, models.TicketStatusClosed, got.Status)
	assert.Equal(t, models.ID("1"), got.FarmerID)
	assert.Equal(t, models.ID("cce-1"), got.CCEID)
	assert.Equal(t, "Pump broken", got.Description)
	assert.Equal(t, fixedNow, got.CreatedAt)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, later, *got.UpdatedAt)

	got = applyUpdate(base, models.Ticket{ID: "other", FarmerID: "2", CCEID: "cce-9"}, later)
	assert.Equal(t, models.ID("T-1"), got.ID)
	assert.Equal(t, models.ID("2"), got.FarmerID)
	assert.Equal(t, models.ID("cce-9"), got.CCEID)
}

func TestTicketsFromRows(t *testing.T) {
	rows := [][]string{
		{"id", "farmerId", "status", "description", "createdAt"},
		{"T-1", "1", "open", "Pump broken", "2024-02-01T10:00:00Z"},
		{"", "2", "", "Needs fertiliser advice", "2024-02-03"},
		{"T-3", "", "open", "no farmer"},
		{"T-4", "3"},
		{" T-5 ", " 4 ", "closed", " Loan query "},
	}

	tickets, skipped := ticketsFromRows(rows)
	assert.Equal(t, 2, skipped)
	require.Len(t, tickets, 3)

	assert.Equal(t, models.ID("T-1"), tickets[0].ID)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), tickets[0].CreatedAt)

	assert.Empty(t, tickets[1].ID)
	assert.Equal(t, models.ID("2"), tickets[1].FarmerID)
	assert.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), tickets[1].CreatedAt)

	assert.Equal(t, models.Ticket{ID: "T-5", FarmerID: "4", Status: "closed", Description: "Loan query"}, tickets[2])
}

func TestTicketsFromRowsHeaderOnly(t *testing.T) {
	tickets, skipped := ticketsFromRows([][]string{{"id", "farmerId"}})
	assert.Empty(t, tickets)
	assert.Zero(t, skipped)
}

func TestAddAndGetTicket(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	stored, err := s.AddTicket(ctx, models.Ticket{FarmerID: "1", CCEID: "cce-1", Description: "Pump broken"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, models.TicketStatusOpen, stored.Status)
	assert.Equal(t, fixedNow, stored.CreatedAt)

	assert.True(t, mr.Exists(getTicketInfoKey(stored.ID)))
	members, err := mr.SMembers(getFarmerTicketsKey("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{string(stored.ID)}, members)
	members, err = mr.SMembers(getCCETicketsKey("cce-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{string(stored.ID)}, members)

	got, err := s.GetTicketByID(ctx, string(stored.ID))
	require.NoError(t, err)
	assert.Equal(t, stored, *got)
}

func TestGetTicketByIDNotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.GetTicketByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestGetAllTickets(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	all, err := s.GetAllTickets(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.AddTicket(ctx, models.Ticket{ID: "T-1", FarmerID: "1", Description: "a"})
	require.NoError(t, err)
	_, err = s.AddTicket(ctx, models.Ticket{ID: "T-2", FarmerID: "2", Description: "b"})
	require.NoError(t, err)
	// dangling ID with no hash is skipped
	_, err = mr.SAdd(ticketsKey, "T-ghost")
	require.NoError(t, err)

	all, err = s.GetAllTickets(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, tk := range all {
		ids = append(ids, string(tk.ID))
	}
	assert.ElementsMatch(t, []string{"T-1", "T-2"}, ids)

	byFarmer, err := s.GetTicketsByFarmer(ctx, "2")
	require.NoError(t, err)
	require.Len(t, byFarmer, 1)
	assert.Equal(t, models.ID("T-2"), byFarmer[0].ID)
}

func TestGetTicketsByCCE(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.AddTicket(ctx, models.Ticket{ID: "T-1", FarmerID: "1", CCEID: "cce-1", Description: "a"})
	require.NoError(t, err)
	_, err = s.AddTicket(ctx, models.Ticket{ID: "T-2", FarmerID: "1", Description: "b"})
	require.NoError(t, err)

	byCCE, err := s.GetTicketsByCCE(ctx, "cce-1")
	require.NoError(t, err)
	require.Len(t, byCCE, 1)
	assert.Equal(t, models.ID("T-1"), byCCE[0].ID)

	none, err := s.GetTicketsByCCE(ctx, "cce-404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddTicketReplacesExisting(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	_, err := s.AddTicket(ctx, models.Ticket{ID: "T-1", FarmerID: "1", CCEID: "cce-1", Description: "a"})
	require.NoError(t, err)
	_, err = s.AddTicket(ctx, models.Ticket{ID: "T-1", FarmerID: "2", Description: "b"})
	require.NoError(t, err)

	assert.False(t, mr.Exists(getFarmerTicketsKey("1")))
	assert.False(t, mr.Exists(getCCETicketsKey("cce-1")))
	got, err := s.GetTicketByID(ctx, "T-1")
	require.NoError(t, err)
	assert.Empty(t, got.CCEID)
	assert.Equal(t, "b", got.Description)
}

func TestUpdateTicket(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	_, err := s.AddTicket(ctx, models.Ticket{ID: "T-1", FarmerID: "1", CCEID: "cce-1", Description: "Pump broken"})
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	s.now = func() time.Time { return later }
	updated, err := s.UpdateTicket(ctx, "T-1", models.Ticket{CCEID: "cce-2", Status: models.TicketStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, updated.Status)
	assert.Equal(t, models.ID("cce-2"), updated.CCEID)
	assert.Equal(t, "Pump broken", updated.Description)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, later, *updated.UpdatedAt)

	got, err := s.GetTicketByID(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, *updated, *got)

	// the ticket moves to the new executive's set
	assert.False(t, mr.Exists(getCCETicketsKey("cce-1")))
	members, err := mr.SMembers(getCCETicketsKey("cce-2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T-1"}, members)
	members, err = mr.SMembers(getFarmerTicketsKey("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T-1"}, members)

	_, err = s.UpdateTicket(ctx, "missing", models.Ticket{Status: models.TicketStatusClosed})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestDeleteTicket(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	_, err := s.AddTicket(ctx, models.Ticket{ID: "T-1", FarmerID: "1", CCEID: "cce-1", Description: "a"})
	require.NoError(t, err)
	_, err = s.AddTicket(ctx, models.Ticket{ID: "T-2", FarmerID: "1", Description: "b"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTicket(ctx, "T-1"))

	_, err = s.GetTicketByID(ctx, "T-1")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.False(t, mr.Exists(getCCETicketsKey("cce-1")))
	members, err := mr.SMembers(getFarmerTicketsKey("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"T-2"}, members)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, s.DeleteTicket(ctx, "T-1"), ErrTicketNotFound)
}

func TestImportTicketsFromExcel(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	file := excelFile(t, [][]interface{}{
		{"id", "farmerId", "status", "description", "createdAt"},
		{"T-10", "1", "open", "Drip line leaking", "2024-02-01"},
		{"T-11", "2", "", "Market price query", ""},
		{"T-12", "", "open", "missing farmer", ""},
	})

	n, err := s.ImportTicketsFromExcel(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetTicketByID(ctx, "T-11")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, got.Status)
	assert.Equal(t, fixedNow, got.CreatedAt)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestImportTicketsFromExcelRejectsGarbage(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.ImportTicketsFromExcel(context.Background(), strings.NewReader("not a spreadsheet"))
	assert.ErrorContains(t, err, "failed to open excel file")
}

func TestSeedIfEmpty(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.SeedIfEmpty(ctx))
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// second run leaves existing data alone
	require.NoError(t, s.SeedIfEmpty(ctx))
	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestInitializeRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := InitializeRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = InitializeRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "could not connect to Redis")
}
