package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/ingest"
	"github.com/ukydev/farm-maintenance/internal/models"
)

// Farming regions for realistic machine positions
var regions = []models.Location{
	{Lat: 45.7570, Lon: 126.6424, Region: "Harbin"},
	{Lat: 43.8171, Lon: 125.3235, Region: "Changchun"},
	{Lat: 34.7466, Lon: 113.6254, Region: "Zhengzhou"},
	{Lat: 36.6512, Lon: 117.1201, Region: "Jinan"},
	{Lat: 30.5928, Lon: 114.3055, Region: "Wuhan"},
	{Lat: 43.8256, Lon: 87.6168, Region: "Urumqi"},
	{Lat: 28.2282, Lon: 112.9388, Region: "Changsha"},
	{Lat: 38.4872, Lon: 106.2309, Region: "Yinchuan"},
}

var machineModels = map[models.MachineType][]string{
	models.MachineTractor:   {"东方红 LX1304", "雷沃 M1504", "约翰迪尔 6B-1404"},
	models.MachineHarvester: {"雷沃谷神 GN70", "沃得 4LZ-7.0", "久保田 PRO988Q"},
	models.MachinePlanter:   {"农哈哈 2BYF-4", "德邦大为 2BMG-6"},
	models.MachineSprayer:   {"丰诺 3WP-1000", "永佳 3WPZ-700"},
	models.MachineDrone:     {"大疆 T40", "极飞 P100"},
}

var machineTypes = []models.MachineType{
	models.MachineTractor, models.MachineHarvester, models.MachinePlanter, models.MachineSprayer, models.MachineDrone,
}

// Litres per hour by machine type
var fuelRates = map[models.MachineType]float64{
	models.MachineTractor:   14,
	models.MachineHarvester: 22,
	models.MachinePlanter:   9,
	models.MachineSprayer:   11,
	models.MachineDrone:     0,
}

func jitterLocation(rng *rand.Rand, base models.Location, meters float64) models.Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rng.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rng.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return models.Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon, Region: base.Region}
}

func randomMachine(rng *rand.Rand, i int) models.Machine {
	mtype := machineTypes[rng.Intn(len(machineTypes))]
	names := machineModels[mtype]
	model := names[rng.Intn(len(names))]
	return models.Machine{
		Name:            fmt.Sprintf("%s-%02d", model, i+1),
		Type:            mtype,
		Model:           model,
		EngineHours:     math.Round(rng.Float64() * 3000),
		Status:          models.StatusIdle,
		CurrentLocation: jitterLocation(rng, regions[rng.Intn(len(regions))], 5000),
	}
}

var authToken string

func authorizedPost(url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func createMachine(apiURL string, machine models.Machine) (string, error) {
	data, err := json.Marshal(machine)
	if err != nil {
		return "", fmt.Errorf("failed to marshal machine: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/machines", data)
	if err != nil {
		return "", fmt.Errorf("failed to create machine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("machine creation failed with status: %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	id := result["id"]
	if id == "" {
		return "", fmt.Errorf("invalid machine ID in response")
	}

	log.WithFields(log.Fields{
		"machine_id": id,
		"type":       machine.Type,
		"model":      machine.Model,
		"hours":      machine.EngineHours,
	}).Info("Created machine")
	return id, nil
}

func initPlans(apiURL, machineID string) error {
	resp, err := authorizedPost(apiURL+"/machines/"+machineID+"/plans/defaults", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("plan initialisation failed with status: %d", resp.StatusCode)
	}
	return nil
}

// --- Simulation ---

// MachineState tracks one simulated machine on a simulated clock.
type MachineState struct {
	MachineID     string
	Type          models.MachineType
	EngineHours   float64
	Clock         time.Time
	InSession     bool
	SessionStart  time.Time
	SessionHours  float64
	SessionTarget float64
	LastOilChange float64
}

type outbound struct {
	Kind    string
	Payload interface{}
}

const (
	oilChangeInterval = 250.0
	repairProbability = 0.002
	startProbability  = 0.35
)

// step advances the machine by tickHours of simulated time and returns the
// events it produced.
func step(rng *rand.Rand, s *MachineState, tickHours float64) []outbound {
	var out []outbound
	s.Clock = s.Clock.Add(time.Duration(tickHours * float64(time.Hour)))

	if !s.InSession {
		if rng.Float64() < startProbability {
			s.InSession = true
			s.SessionStart = s.Clock
			s.SessionHours = 0
			s.SessionTarget = 4 + rng.Float64()*6
		}
		return out
	}

	s.EngineHours += tickHours
	s.SessionHours += tickHours

	status := models.StatusWorking
	if s.SessionHours >= s.SessionTarget {
		end := s.SessionStart.Add(time.Duration(s.SessionHours * float64(time.Hour)))
		ev := ingest.WorkLogEvent{
			StartTime: s.SessionStart,
			EndTime:   &end,
			Area:      math.Round(s.SessionHours * (5 + rng.Float64()*10)),
			FieldName: fmt.Sprintf("地块-%d", rng.Intn(40)+1),
		}
		if rate := fuelRates[s.Type]; rate > 0 {
			fuel := math.Round(s.SessionHours * rate * (0.8 + rng.Float64()*0.6))
			ev.FuelConsumed = &fuel
		}
		out = append(out, outbound{Kind: ingest.KindWorkLog, Payload: ev})
		s.InSession = false
		status = models.StatusIdle
	}
	out = append(out, outbound{Kind: ingest.KindHours, Payload: ingest.HoursReport{EngineHours: s.EngineHours, Status: status}})

	if s.EngineHours-s.LastOilChange >= oilChangeInterval {
		out = append(out, outbound{Kind: ingest.KindMaintenance, Payload: models.MaintenanceLog{
			TaskType:    models.TaskOilChange,
			PerformedAt: s.Clock,
			EngineHours: s.EngineHours,
			Cost:        800,
			Technician:  "模拟维修站",
		}})
		s.LastOilChange = s.EngineHours
	}

	if rng.Float64() < repairProbability {
		out = append(out, outbound{Kind: ingest.KindMaintenance, Payload: models.MaintenanceLog{
			TaskType:    models.TaskRepair,
			PerformedAt: s.Clock,
			EngineHours: s.EngineHours,
			Cost:        math.Round(1000 + rng.Float64()*4000),
			Notes:       "simulated breakdown",
		}})
	}
	return out
}

func publish(client mqtt.Client, prefix, machineID string, msg outbound) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", msg.Kind, err)
	}
	token := client.Publish(ingest.Topic(prefix, machineID, msg.Kind), 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.Kind)
	}
	return token.Error()
}

func simulateMachine(ctx context.Context, client mqtt.Client, prefix string, s *MachineState, interval time.Duration, tickHours float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		for _, msg := range step(rng, s, tickHours) {
			if err := publish(client, prefix, s.MachineID, msg); err != nil {
				log.WithError(err).WithField("machine_id", s.MachineID).Error("Failed to publish")
				continue
			}
			log.WithFields(log.Fields{"machine_id": s.MachineID, "kind": msg.Kind, "hours": s.EngineHours}).Debug("Published")
		}
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	fleetSize := envInt("FLEET_SIZE", 10)
	apiURL := envString("API_BASE_URL", "http://localhost:8080/api")
	broker := envString("MQTT_BROKER", "tcp://localhost:1883")
	prefix := envString("MQTT_TOPIC_PREFIX", "farm/machines")
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 2)) * time.Second
	tickHours := 0.5
	if v := os.Getenv("SIM_HOURS_PER_TICK"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			tickHours = f
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"broker":     broker,
		"interval":   interval,
		"tick_hours": tickHours,
	}).Info("Starting farm machine simulation")

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("farm-simulator-%d", time.Now().UnixNano())).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
	}
	defer client.Disconnect(250)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	// Replay the last month on a compressed clock.
	start := time.Now().UTC().AddDate(0, 0, -30)

	states := make([]*MachineState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		machine := randomMachine(rng, i)
		id, err := createMachine(apiURL, machine)
		if err != nil {
			log.WithError(err).Error("Failed to create machine")
			continue
		}
		if err := initPlans(apiURL, id); err != nil {
			log.WithError(err).WithField("machine_id", id).Warn("Failed to initialise plans")
		}
		states = append(states, &MachineState{
			MachineID:     id,
			Type:          machine.Type,
			EngineHours:   machine.EngineHours,
			Clock:         start,
			LastOilChange: math.Floor(machine.EngineHours/oilChangeInterval) * oilChangeInterval,
		})
	}

	log.WithField("created_machines", len(states)).Info("Machine creation completed")
	if len(states) == 0 {
		log.Error("No machines created. Ensure SIM_AUTH_TOKEN is valid and API is reachable. Exiting.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i, s := range states {
		go simulateMachine(ctx, client, prefix, s, interval, tickHours, rng.Int63()+int64(i))
	}

	log.Info("Machine simulation started")
	<-ctx.Done()
}
