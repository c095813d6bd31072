package config

import (
	"fmt"
	"os"

	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"gopkg.in/yaml.v3"
)

// LoadCatalog reads a maintenance catalog from a YAML file.
//
// Example:
//
//	tasks:
//	  - type: oil_change
//	    name: 更换机油
//	    interval_hours: 250
//	    cost: 800
//	machines:
//	  harvester: {name: 收割机, factor: 1.2}
func LoadCatalog(path string) (maintenance.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return maintenance.Catalog{}, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (maintenance.Catalog, error) {
	var c maintenance.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return maintenance.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := ValidateCatalog(c); err != nil {
		return maintenance.Catalog{}, err
	}
	return c, nil
}

// ValidateCatalog checks that every task has a positive interval and every
// machine factor is at least the engine floor.
func ValidateCatalog(c maintenance.Catalog) error {
	if len(c.Tasks) == 0 {
		return fmt.Errorf("catalog: at least one task is required")
	}
	seen := make(map[string]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		if t.Type == "" {
			return fmt.Errorf("catalog: tasks[%d]: type is required", i)
		}
		if t.Type.IsRepair() {
			return fmt.Errorf("catalog: tasks[%d]: %q is reserved for unscheduled repairs", i, t.Type)
		}
		if seen[string(t.Type)] {
			return fmt.Errorf("catalog: tasks[%d]: duplicate type %q", i, t.Type)
		}
		seen[string(t.Type)] = true
		if t.IntervalHours <= 0 {
			return fmt.Errorf("catalog: task %q: interval_hours must be positive", t.Type)
		}
		if t.Cost < 0 {
			return fmt.Errorf("catalog: task %q: cost must not be negative", t.Type)
		}
	}
	for mt, p := range c.Machines {
		if p.Factor < maintenance.MinFactor {
			return fmt.Errorf("catalog: machine %q: factor must be at least %.1f", mt, maintenance.MinFactor)
		}
	}
	return nil
}
