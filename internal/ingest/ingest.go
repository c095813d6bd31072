// Package ingest consumes machine telemetry from MQTT and records it through
// the health service.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/models"
)

// Topic kinds under <prefix>/<machineID>/.
const (
	KindHours       = "hours"
	KindWorkLog     = "worklog"
	KindMaintenance = "maintenance"
)

var errBadTopic = errors.New("unexpected topic")

// Recorder is the write side of the health service.
type Recorder interface {
	ReportEngineHours(ctx context.Context, machineID string, hours float64) error
	UpdateStatus(ctx context.Context, machineID, status string) error
	RecordWorkLog(ctx context.Context, entry models.WorkLog) (string, error)
	CloseWorkLog(ctx context.Context, machineID, workLogID string, end time.Time, fuel *float64) error
	RecordMaintenance(ctx context.Context, entry models.MaintenanceLog) error
}

// HoursReport is published on <prefix>/<machineID>/hours.
type HoursReport struct {
	EngineHours float64 `json:"engine_hours"`
	Status      string  `json:"status,omitempty"`
}

// WorkLogEvent is published on <prefix>/<machineID>/worklog. An event with an
// ID closes that session; otherwise a new session is recorded.
type WorkLogEvent struct {
	ID           string     `json:"id,omitempty"`
	Operator     string     `json:"operator,omitempty"`
	FieldName    string     `json:"field_name,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Area         float64    `json:"area"`
	FuelConsumed *float64   `json:"fuel_consumed,omitempty"`
}

// Topic returns the topic a machine publishes kind events on.
func Topic(prefix, machineID, kind string) string {
	return prefix + "/" + machineID + "/" + kind
}

// Ingestor routes MQTT messages to a Recorder.
type Ingestor struct {
	recorder Recorder
	prefix   string
	timeout  time.Duration
}

// NewIngestor creates an ingestor for topics under prefix.
func NewIngestor(recorder Recorder, prefix string) *Ingestor {
	return &Ingestor{
		recorder: recorder,
		prefix:   strings.TrimSuffix(prefix, "/"),
		timeout:  10 * time.Second,
	}
}

// Subscriptions returns the topic filters the ingestor consumes, at QoS 1.
func (i *Ingestor) Subscriptions() map[string]byte {
	return map[string]byte{
		Topic(i.prefix, "+", KindHours):       1,
		Topic(i.prefix, "+", KindWorkLog):     1,
		Topic(i.prefix, "+", KindMaintenance): 1,
	}
}

// HandleMessage is the paho callback. Invalid messages are logged and dropped.
func (i *Ingestor) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	if err := i.Handle(ctx, msg.Topic(), msg.Payload()); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropped MQTT message")
	}
}

// Handle decodes one message and records it.
func (i *Ingestor) Handle(ctx context.Context, topic string, payload []byte) error {
	machineID, kind, err := i.parseTopic(topic)
	if err != nil {
		return err
	}

	switch kind {
	case KindHours:
		var report HoursReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return fmt.Errorf("decode hours report: %w", err)
		}
		if err := i.recorder.ReportEngineHours(ctx, machineID, report.EngineHours); err != nil {
			return err
		}
		if report.Status != "" {
			return i.recorder.UpdateStatus(ctx, machineID, report.Status)
		}
		return nil

	case KindWorkLog:
		var ev WorkLogEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode work log: %w", err)
		}
		if ev.ID != "" {
			if ev.EndTime == nil {
				return errors.New("closing a work log requires end_time")
			}
			return i.recorder.CloseWorkLog(ctx, machineID, ev.ID, *ev.EndTime, ev.FuelConsumed)
		}
		id, err := i.recorder.RecordWorkLog(ctx, models.WorkLog{
			MachineID:    machineID,
			Operator:     ev.Operator,
			FieldName:    ev.FieldName,
			StartTime:    ev.StartTime,
			EndTime:      ev.EndTime,
			Area:         ev.Area,
			FuelConsumed: ev.FuelConsumed,
		})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"machine_id": machineID, "work_log_id": id}).Debug("Recorded work log")
		return nil

	case KindMaintenance:
		var entry models.MaintenanceLog
		if err := json.Unmarshal(payload, &entry); err != nil {
			return fmt.Errorf("decode maintenance log: %w", err)
		}
		entry.MachineID = machineID
		return i.recorder.RecordMaintenance(ctx, entry)
	}
	return fmt.Errorf("%w: %s", errBadTopic, topic)
}

func (i *Ingestor) parseTopic(topic string) (machineID, kind string, err error) {
	rest, ok := strings.CutPrefix(topic, i.prefix+"/")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", errBadTopic, topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("%w: %s", errBadTopic, topic)
	}
	return parts[0], parts[1], nil
}

// Connect connects to the broker and (re)subscribes on every connection.
func Connect(broker, clientID string, ing *Ingestor) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetCleanSession(false).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			token := c.SubscribeMultiple(ing.Subscriptions(), ing.HandleMessage)
			if token.WaitTimeout(10*time.Second) && token.Error() != nil {
				log.WithError(token.Error()).Error("MQTT subscribe failed")
				return
			}
			log.WithField("prefix", ing.prefix).Info("Subscribed to machine telemetry")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}
