package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/farm-maintenance/internal/models"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) ReportEngineHours(ctx context.Context, machineID string, hours float64) error {
	return m.Called(ctx, machineID, hours).Error(0)
}

func (m *MockRecorder) UpdateStatus(ctx context.Context, machineID, status string) error {
	return m.Called(ctx, machineID, status).Error(0)
}

func (m *MockRecorder) RecordWorkLog(ctx context.Context, entry models.WorkLog) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func (m *MockRecorder) CloseWorkLog(ctx context.Context, machineID, workLogID string, end time.Time, fuel *float64) error {
	return m.Called(ctx, machineID, workLogID, end, fuel).Error(0)
}

func (m *MockRecorder) RecordMaintenance(ctx context.Context, entry models.MaintenanceLog) error {
	return m.Called(ctx, entry).Error(0)
}

// fakeMessage implements mqtt.Message
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestSubscriptions(t *testing.T) {
	ing := NewIngestor(new(MockRecorder), "farm/machines/")
	subs := ing.Subscriptions()
	assert.Len(t, subs, 3)
	assert.Contains(t, subs, "farm/machines/+/hours")
	assert.Contains(t, subs, "farm/machines/+/worklog")
	assert.Contains(t, subs, "farm/machines/+/maintenance")
}

func TestHandle_Hours(t *testing.T) {
	rec := new(MockRecorder)
	ing := NewIngestor(rec, "farm/machines")
	rec.On("ReportEngineHours", mock.Anything, "m1", 1234.5).Return(nil)
	rec.On("UpdateStatus", mock.Anything, "m1", models.StatusWorking).Return(nil)

	err := ing.Handle(context.Background(), "farm/machines/m1/hours",
		mustJSON(t, HoursReport{EngineHours: 1234.5, Status: models.StatusWorking}))
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

func TestHandle_HoursWithoutStatus(t *testing.T) {
	rec := new(MockRecorder)
	ing := NewIngestor(rec, "farm/machines")
	rec.On("ReportEngineHours", mock.Anything, "m1", 10.0).Return(nil)

	require.NoError(t, ing.Handle(context.Background(), "farm/machines/m1/hours", []byte(`{"engine_hours":10}`)))
	rec.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_WorkLog(t *testing.T) {
	start := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Hour)
	fuel := 70.0

	t.Run("new session", func(t *testing.T) {
		rec := new(MockRecorder)
		ing := NewIngestor(rec, "farm/machines")
		rec.On("RecordWorkLog", mock.Anything, mock.MatchedBy(func(w models.WorkLog) bool {
			return w.MachineID == "m2" && w.StartTime.Equal(start) && w.Area == 80 && w.FieldName == "东三号地"
		})).Return("wl9", nil)

		err := ing.Handle(context.Background(), "farm/machines/m2/worklog",
			mustJSON(t, WorkLogEvent{StartTime: start, Area: 80, FieldName: "东三号地"}))
		require.NoError(t, err)
		rec.AssertExpectations(t)
	})

	t.Run("close session", func(t *testing.T) {
		rec := new(MockRecorder)
		ing := NewIngestor(rec, "farm/machines")
		rec.On("CloseWorkLog", mock.Anything, "m2", "wl9",
			mock.MatchedBy(func(ts time.Time) bool { return ts.Equal(end) }),
			mock.MatchedBy(func(f *float64) bool { return f != nil && *f == fuel })).Return(nil)

		err := ing.Handle(context.Background(), "farm/machines/m2/worklog",
			mustJSON(t, WorkLogEvent{ID: "wl9", StartTime: start, EndTime: &end, FuelConsumed: &fuel}))
		require.NoError(t, err)
		rec.AssertExpectations(t)
	})

	t.Run("close without end time", func(t *testing.T) {
		ing := NewIngestor(new(MockRecorder), "farm/machines")
		err := ing.Handle(context.Background(), "farm/machines/m2/worklog", []byte(`{"id":"wl9"}`))
		assert.Error(t, err)
	})
}

func TestHandle_Maintenance(t *testing.T) {
	rec := new(MockRecorder)
	ing := NewIngestor(rec, "farm/machines")
	rec.On("RecordMaintenance", mock.Anything, mock.MatchedBy(func(l models.MaintenanceLog) bool {
		return l.MachineID == "m3" && l.TaskType == models.TaskEmergencyRepair && l.Cost == 5000
	})).Return(nil)

	payload := []byte(`{"machine_id":"spoofed","task_type":"emergency_repair","performed_at":"2024-06-01T10:00:00Z","engine_hours":800,"cost":5000}`)
	require.NoError(t, ing.Handle(context.Background(), "farm/machines/m3/maintenance", payload))
	rec.AssertExpectations(t)
}

func TestHandle_Rejects(t *testing.T) {
	ing := NewIngestor(new(MockRecorder), "farm/machines")
	ctx := context.Background()

	assert.ErrorIs(t, ing.Handle(ctx, "other/m1/hours", []byte(`{}`)), errBadTopic)
	assert.ErrorIs(t, ing.Handle(ctx, "farm/machines/m1/hours/extra", []byte(`{}`)), errBadTopic)
	assert.ErrorIs(t, ing.Handle(ctx, "farm/machines//hours", []byte(`{}`)), errBadTopic)
	assert.ErrorIs(t, ing.Handle(ctx, "farm/machines/m1/gps", []byte(`{}`)), errBadTopic)
	assert.Error(t, ing.Handle(ctx, "farm/machines/m1/hours", []byte(`{bad`)))
}

func TestHandleMessage_LogsAndDropsErrors(t *testing.T) {
	rec := new(MockRecorder)
	ing := NewIngestor(rec, "farm/machines")
	rec.On("ReportEngineHours", mock.Anything, "m1", 5.0).Return(assert.AnError)

	assert.NotPanics(t, func() {
		ing.HandleMessage(nil, fakeMessage{topic: "farm/machines/m1/hours", payload: []byte(`{"engine_hours":5}`)})
	})
	rec.AssertExpectations(t)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "farm/machines/abc/hours", Topic("farm/machines", "abc", KindHours))
}
