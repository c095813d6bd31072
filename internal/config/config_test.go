package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"github.com/ukydev/farm-maintenance/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONGO_DB", "REDIS_URL", "CACHE_TTL", "MQTT_BROKER", "WORKLOG_WINDOW_DAYS", "JWT_EXPIRY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "farm", cfg.MongoDB)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, "farm/machines", cfg.MQTTTopicPrefix)
	assert.Equal(t, 30, cfg.WorkLogWindowDays)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("WORKLOG_WINDOW_DAYS", "14")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 14, cfg.WorkLogWindowDays)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("WORKLOG_WINDOW_DAYS", "-3")
	t.Setenv("RATE_LIMIT_MAX", "lots")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30, cfg.WorkLogWindowDays)
	assert.Equal(t, 120, cfg.RateLimitMax)
}

const validCatalog = `
tasks:
  - type: oil_change
    name: 更换机油
    interval_hours: 200
    cost: 900
  - type: belt_check
    name: 皮带检查
    interval_hours: 300
    cost: 200
machines:
  harvester:
    name: 收割机
    factor: 1.3
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(validCatalog))
	require.NoError(t, err)
	require.Len(t, c.Tasks, 2)
	assert.Equal(t, models.TaskOilChange, c.Tasks[0].Type)
	assert.Equal(t, 200.0, c.Tasks[0].IntervalHours)
	assert.Equal(t, 1.3, c.MachineFactor(models.MachineHarvester))
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "tasks: [oops"},
		{"no tasks", "machines: {}"},
		{"zero interval", "tasks: [{type: oil_change, interval_hours: 0}]"},
		{"negative cost", "tasks: [{type: oil_change, interval_hours: 10, cost: -1}]"},
		{"duplicate task", "tasks: [{type: oil_change, interval_hours: 10}, {type: oil_change, interval_hours: 20}]"},
		{"repair as plan task", "tasks: [{type: repair, interval_hours: 10}]"},
		{"factor below floor", "tasks: [{type: oil_change, interval_hours: 10}]\nmachines: {drone: {factor: 0}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestValidateCatalog_Default(t *testing.T) {
	assert.NoError(t, ValidateCatalog(maintenance.DefaultCatalog()))
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchCatalog_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan maintenance.Catalog, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchCatalog(ctx, path, func(c maintenance.Catalog) { reloaded <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid write is ignored.
	require.NoError(t, os.WriteFile(path, []byte("tasks: []"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("tasks: [{type: oil_change, name: x, interval_hours: 111}]"), 0o644))

	select {
	case c := <-reloaded:
		require.Len(t, c.Tasks, 1)
		assert.Equal(t, 111.0, c.Tasks[0].IntervalHours)
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchCatalog_SurvivesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan maintenance.Catalog, 16)
	go func() {
		_ = WatchCatalog(ctx, path, func(c maintenance.Catalog) { reloaded <- c })
	}()
	time.Sleep(100 * time.Millisecond)

	replace := func(interval string) {
		tmp := filepath.Join(dir, "catalog.yaml.tmp")
		doc := "tasks: [{type: oil_change, name: x, interval_hours: " + interval + "}]"
		require.NoError(t, os.WriteFile(tmp, []byte(doc), 0o644))
		require.NoError(t, os.Rename(tmp, path))
	}

	waitFor := func(want float64) {
		deadline := time.After(5 * time.Second)
		for {
			select {
			case c := <-reloaded:
				if len(c.Tasks) == 1 && c.Tasks[0].IntervalHours == want {
					return
				}
			case <-deadline:
				t.Fatalf("catalog with interval %.0f was not loaded", want)
			}
		}
	}

	// The second replace only arrives if the watch outlived the first one.
	replace("120")
	waitFor(120)
	replace("130")
	waitFor(130)
}
