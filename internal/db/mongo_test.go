package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/farm-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestNilCollectionGuards(t *testing.T) {
	ctx := context.Background()

	_, err := (&MongoMachineCollection{}).InsertMachine(ctx, models.Machine{})
	assert.Error(t, err)
	_, err = (&MongoMachineCollection{}).FindMachines(ctx)
	assert.Error(t, err)
	assert.Error(t, (&MongoMachineCollection{}).UpdateEngineHours(ctx, "507f1f77bcf86cd799439011", 10))
	_, err = (&MongoPlanCollection{}).FindPlansByMachine(ctx, "m1")
	assert.Error(t, err)
	assert.Error(t, (&MongoMaintenanceLogCollection{}).InsertMaintenanceLog(ctx, models.MaintenanceLog{}))
	_, err = (&MongoWorkLogCollection{}).InsertWorkLog(ctx, models.WorkLog{})
	assert.Error(t, err)
}

func TestObjectID_Invalid(t *testing.T) {
	_, err := objectID("not-hex")
	assert.ErrorIs(t, err, ErrNotFound)
}

// testDatabase connects to the MongoDB named by MONGO_URI, skipping the test
// when none is reachable.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	client, err := ConnectMongo(context.Background(), uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	database := client.Database("test_farm")
	require.NoError(t, database.Drop(context.Background()))
	require.NoError(t, EnsureIndexes(context.Background(), database))
	return database
}

func TestMachineCollection_Integration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	machines := &MongoMachineCollection{Collection: database.Collection(MachinesCollection)}

	id, err := machines.InsertMachine(ctx, models.Machine{Name: "雷沃-01", Type: models.MachineHarvester, EngineHours: 100})
	require.NoError(t, err)

	require.NoError(t, machines.UpdateEngineHours(ctx, id, 150))
	assert.ErrorIs(t, machines.UpdateEngineHours(ctx, id, 120), ErrStaleReading)
	assert.ErrorIs(t, machines.UpdateEngineHours(ctx, "507f1f77bcf86cd799439011", 1), ErrNotFound)

	found, err := machines.FindMachineByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 150.0, found.EngineHours)

	require.NoError(t, machines.UpdateMachineStatus(ctx, id, models.StatusMaintenance))
	all, err := machines.FindMachines(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusMaintenance, all[0].Status)

	_, err = machines.FindMachineByID(ctx, "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlanCollection_Integration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	plans := &MongoPlanCollection{Collection: database.Collection(PlansCollection)}

	plan := models.MaintenancePlan{MachineID: "m1", TaskType: models.TaskOilChange, IntervalHours: 250, LastServiceHours: 750, EstimatedCost: 800}
	require.NoError(t, plans.UpsertPlan(ctx, plan))
	plan.IntervalHours = 200
	require.NoError(t, plans.UpsertPlan(ctx, plan))

	found, err := plans.FindPlansByMachine(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 200.0, found[0].IntervalHours)

	ok, err := plans.MarkServiced(ctx, "m1", models.TaskOilChange, 1000)
	require.NoError(t, err)
	assert.True(t, ok)

	// A late log with lower hours must not move the last service back.
	ok, err = plans.MarkServiced(ctx, "m1", models.TaskOilChange, 900)
	require.NoError(t, err)
	assert.True(t, ok)
	found, err = plans.FindPlansByMachine(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1000.0, found[0].LastServiceHours)

	ok, err = plans.MarkServiced(ctx, "m1", models.TaskBeltCheck, 1000)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorkLogCollection_Integration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	logs := &MongoWorkLogCollection{Collection: database.Collection(WorkLogsCollection)}

	start := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Millisecond)
	id, err := logs.InsertWorkLog(ctx, models.WorkLog{MachineID: "m1", StartTime: start, Area: 20})
	require.NoError(t, err)

	fuel := 30.0
	assert.ErrorIs(t, logs.CloseWorkLog(ctx, "m2", id, start.Add(2*time.Hour), &fuel), ErrNotFound, "session belongs to m1")
	require.NoError(t, logs.CloseWorkLog(ctx, "m1", id, start.Add(2*time.Hour), &fuel))
	assert.ErrorIs(t, logs.CloseWorkLog(ctx, "m1", id, start.Add(3*time.Hour), nil), ErrNotFound)

	found, err := logs.FindWorkLogsSince(ctx, "m1", start.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.InDelta(t, 2.0, found[0].Hours(), 1e-9)
	require.NotNil(t, found[0].FuelConsumed)
	assert.Equal(t, 30.0, *found[0].FuelConsumed)

	none, err := logs.FindWorkLogsSince(ctx, "m1", start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConnectMongo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	client, err := ConnectMongo(ctx, "mongodb://127.0.0.1:1")
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Less(t, time.Since(start), 5*time.Second)
}
