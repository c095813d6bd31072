package maintenance

import (
	"github.com/ukydev/farm-maintenance/internal/models"
)

// MinFactor is the floor applied to every wear multiplier so adjusted
// intervals stay finite and positive.
const MinFactor = 0.1

// TaskDefinition describes one recurring maintenance task in the catalog.
type TaskDefinition struct {
	Type          models.TaskType `yaml:"type" json:"type"`
	Name          string          `yaml:"name" json:"name"`
	IntervalHours float64         `yaml:"interval_hours" json:"interval_hours"`
	Cost          float64         `yaml:"cost" json:"cost"`
}

// MachineProfile carries the display name and wear multiplier of a machine type.
type MachineProfile struct {
	Name   string  `yaml:"name" json:"name"`
	Factor float64 `yaml:"factor" json:"factor"`
}

// Catalog holds the lookup tables the engine computes against.
type Catalog struct {
	Tasks    []TaskDefinition                      `yaml:"tasks" json:"tasks"`
	Machines map[models.MachineType]MachineProfile `yaml:"machines" json:"machines"`
}

// DefaultCatalog returns the built-in task catalog and machine factors.
func DefaultCatalog() Catalog {
	return Catalog{
		Tasks: []TaskDefinition{
			{Type: models.TaskOilChange, Name: "更换机油", IntervalHours: 250, Cost: 800},
			{Type: models.TaskFilterReplace, Name: "更换滤芯", IntervalHours: 500, Cost: 500},
			{Type: models.TaskBeltCheck, Name: "皮带检查", IntervalHours: 300, Cost: 200},
			{Type: models.TaskBrakeService, Name: "刹车保养", IntervalHours: 1000, Cost: 1500},
			{Type: models.TaskHydraulicService, Name: "液压系统保养", IntervalHours: 1000, Cost: 2000},
			{Type: models.TaskEngineOverhaul, Name: "发动机大修", IntervalHours: 5000, Cost: 20000},
			{Type: models.TaskGeneralService, Name: "常规保养", IntervalHours: 500, Cost: 1000},
		},
		Machines: map[models.MachineType]MachineProfile{
			models.MachineTractor:   {Name: "拖拉机", Factor: 1.0},
			models.MachineHarvester: {Name: "收割机", Factor: 1.2},
			models.MachinePlanter:   {Name: "播种机", Factor: 0.9},
			models.MachineSprayer:   {Name: "植保机", Factor: 1.1},
			models.MachineDrone:     {Name: "无人机", Factor: 0.8},
		},
	}
}

// clone returns a deep copy so callers cannot mutate an engine's tables.
func (c Catalog) clone() Catalog {
	out := Catalog{
		Tasks:    make([]TaskDefinition, len(c.Tasks)),
		Machines: make(map[models.MachineType]MachineProfile, len(c.Machines)),
	}
	copy(out.Tasks, c.Tasks)
	for k, v := range c.Machines {
		out.Machines[k] = v
	}
	return out
}

// Task looks up a task definition by type.
func (c Catalog) Task(t models.TaskType) (TaskDefinition, bool) {
	for _, def := range c.Tasks {
		if def.Type == t {
			return def, true
		}
	}
	return TaskDefinition{}, false
}

// TaskName returns the display name of a task, falling back to its type.
func (c Catalog) TaskName(t models.TaskType) string {
	if def, ok := c.Task(t); ok && def.Name != "" {
		return def.Name
	}
	return string(t)
}

// MachineFactor returns the wear multiplier for a machine type.
// Unknown types are neutral.
func (c Catalog) MachineFactor(t models.MachineType) float64 {
	p, ok := c.Machines[t]
	if !ok {
		return 1.0
	}
	return floorFactor(p.Factor)
}

// MachineName returns the display name of a machine type.
func (c Catalog) MachineName(t models.MachineType) string {
	if p, ok := c.Machines[t]; ok && p.Name != "" {
		return p.Name
	}
	return string(t)
}

func floorFactor(f float64) float64 {
	if f < MinFactor {
		return MinFactor
	}
	return f
}
