package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MachineType identifies an equipment category.
type MachineType string

const (
	MachineTractor   MachineType = "tractor"
	MachineHarvester MachineType = "harvester"
	MachinePlanter   MachineType = "planter"
	MachineSprayer   MachineType = "sprayer"
	MachineDrone     MachineType = "drone"
)

// Machine status values.
const (
	StatusWorking     = "working"
	StatusIdle        = "idle"
	StatusMaintenance = "maintenance"
	StatusOffline     = "offline"
)

// Machine represents a piece of farm equipment.
type Machine struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Type              MachineType        `bson:"type" json:"type"`
	Model             string             `bson:"model" json:"model"`
	EngineHours       float64            `bson:"engine_hours" json:"engine_hours"` // cumulative, never decreases
	Status            string             `bson:"status" json:"status"`
	CurrentLocation   Location           `bson:"current_location" json:"current_location"`
	LastMaintenanceAt *time.Time         `bson:"last_maintenance_at,omitempty" json:"last_maintenance_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidMachineType reports whether t is one of the known equipment categories.
func IsValidMachineType(t MachineType) bool {
	switch t {
	case MachineTractor, MachineHarvester, MachinePlanter, MachineSprayer, MachineDrone:
		return true
	default:
		return false
	}
}

// IsValidMachineStatus reports whether s is a known operating status.
func IsValidMachineStatus(s string) bool {
	switch s {
	case StatusWorking, StatusIdle, StatusMaintenance, StatusOffline:
		return true
	default:
		return false
	}
}
