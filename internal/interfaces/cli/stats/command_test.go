package stats

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
)

func sampleDay() dayStats {
	window := stat.NewDayWindow(time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC))
	g := stat.NewGlobalStat(window)
	g.OrderCount = 2
	g.OrderTotal = 300000
	g.TransferUsedTotal = 1536

	return dayStats{
		window:  window,
		global:  g,
		users:   []*stat.UserStat{{UserID: 7, ServerRate: 1, Upload: 1024}},
		servers: []*stat.ServerStat{{ServerID: 3, ServerType: "vmess", Download: 2048}},
		latest: &traffic.LedgerEntry{
			CycleID:     "c1",
			Users:       1,
			UploadTotal: 1024,
			CreatedAt:   window.Start.Unix(),
		},
	}
}

func TestTopUsers(t *testing.T) {
	users := []*stat.UserStat{
		{UserID: 1, Upload: 10},
		{UserID: 2, Upload: 30},
		{UserID: 3, Download: 20},
	}

	top := topUsers(users, 2)
	require.Len(t, top, 2)
	assert.Equal(t, uint(2), top[0].UserID)
	assert.Equal(t, uint(3), top[1].UserID)
	assert.Equal(t, uint(1), users[0].UserID, "input order is preserved")

	assert.Len(t, topUsers(users, 0), 3)
}

func TestFormatCents(t *testing.T) {
	p := message.NewPrinter(language.English)

	assert.Equal(t, "0.00", formatCents(p, 0))
	assert.Equal(t, "12.05", formatCents(p, 1205))
	assert.Equal(t, "-1.50", formatCents(p, -150))
	assert.Equal(t, "12,345.67", formatCents(p, 1234567))
}

func TestRenderTable(t *testing.T) {
	ds := sampleDay()

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, ds, 10, ds.window.Start.Add(2*time.Hour)))

	out := buf.String()
	assert.Contains(t, out, "Statistics for 2025-03-01")
	assert.Contains(t, out, "3,000.00")
	assert.Contains(t, out, "1.5 KB")
	assert.Contains(t, out, "Users (1 of 1)")
	assert.Contains(t, out, "vmess")
	assert.Contains(t, out, "cycle c1")
	assert.Contains(t, out, "2 hours ago")
}

func TestRenderTable_Empty(t *testing.T) {
	window := stat.NewDayWindow(time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, dayStats{window: window}, 10, time.Now()))

	out := buf.String()
	assert.Contains(t, out, "No global summary recorded.")
	assert.Contains(t, out, "never")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, sampleDay(), outputJSON, 10))

	var got view
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2025-03-01", got.Day)
	require.NotNil(t, got.Global)
	assert.Equal(t, int64(300000), got.Global.OrderTotal)
	require.Len(t, got.Users, 1)
	assert.Equal(t, uint64(1024), got.Users[0].Upload)
	require.NotNil(t, got.Drain)
	assert.Equal(t, "c1", got.Drain.CycleID)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, sampleDay(), outputYAML, 10))

	var got view
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2025-03-01", got.Day)
	require.Len(t, got.Servers, 1)
	assert.Equal(t, "vmess", got.Servers[0].ServerType)
}

func TestRender_UnknownFormat(t *testing.T) {
	err := render(&bytes.Buffer{}, sampleDay(), "xml", 10)
	assert.Error(t, err)
}
