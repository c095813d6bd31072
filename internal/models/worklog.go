package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkLog represents one work session of a machine in the field.
// A nil EndTime means the session is still open or was abandoned.
type WorkLog struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MachineID    string             `json:"machine_id" bson:"machine_id"`
	Operator     string             `json:"operator" bson:"operator"`
	FieldName    string             `json:"field_name" bson:"field_name"`
	StartTime    time.Time          `json:"start_time" bson:"start_time"`
	EndTime      *time.Time         `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Area         float64            `json:"area" bson:"area"`                                       // in mu
	FuelConsumed *float64           `json:"fuel_consumed,omitempty" bson:"fuel_consumed,omitempty"` // in liters
	Notes        string             `json:"notes" bson:"notes"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Hours returns the elapsed session length in hours, or 0 for an open session.
func (w WorkLog) Hours() float64 {
	if w.EndTime == nil {
		return 0
	}
	return w.EndTime.Sub(w.StartTime).Hours()
}

// Validate rejects sessions that would corrupt usage aggregates.
func (w WorkLog) Validate() error {
	if w.StartTime.IsZero() {
		return errors.New("start_time is required")
	}
	if w.EndTime != nil && w.EndTime.Before(w.StartTime) {
		return errors.New("end_time must not be before start_time")
	}
	if w.Area < 0 {
		return errors.New("area must not be negative")
	}
	if w.FuelConsumed != nil && *w.FuelConsumed < 0 {
		return errors.New("fuel_consumed must not be negative")
	}
	return nil
}
