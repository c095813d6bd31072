package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/farm-maintenance/internal/models"
)

func TestLoadEngine_Default(t *testing.T) {
	engine, err := loadEngine("")
	require.NoError(t, err)
	assert.Len(t, engine.Catalog().Tasks, 7)
}

func TestLoadEngine_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `tasks:
  - type: oil_change
    name: 更换机油
    interval_hours: 200
    cost: 900
machines:
  tractor: {name: 拖拉机, factor: 1.0}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	engine, err := loadEngine(path)
	require.NoError(t, err)
	plans := engine.GenerateDefaultPlans(models.MachineTractor, 450)
	require.Len(t, plans, 1)
	assert.Equal(t, 200.0, plans[0].IntervalHours)
	assert.Equal(t, 400.0, plans[0].LastServiceHours)
}

func TestLoadEngine_MissingFile(t *testing.T) {
	_, err := loadEngine(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
