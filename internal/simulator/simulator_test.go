package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/models"
)

func testConfig(devices, actions int) *models.Config {
	return &models.Config{
		StoreID: "MAIN",
		Simulation: models.SimulationConfig{
			Seed:      17,
			Devices:   devices,
			Actions:   actions,
			Interval:  time.Second,
			MenuItems: 8,
		},
	}
}

func TestSimulator_DevicesConverge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sim := NewSimulator(testConfig(3, 120), activity.NewRecorder(activity.NopOutput{}, nil), nil)
	report, err := sim.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Events < 123 {
		t.Fatalf("expected at least 123 events, got %d", report.Events)
	}
	if report.ByType[models.EventSignIn] < 3 {
		t.Fatalf("expected every device to sign in, got %d sign-ins", report.ByType[models.EventSignIn])
	}
	if report.RemotePuts == 0 {
		t.Fatal("expected remote writes")
	}
	if !report.Converged {
		t.Fatalf("devices did not converge: carts %v favorites %v", report.CartLines, report.Favorites)
	}
	if len(report.CartLines) != 3 {
		t.Fatalf("expected a cart size per device, got %v", report.CartLines)
	}
}

func TestSimulator_SingleDeviceWithoutRecorder(t *testing.T) {
	sim := NewSimulator(testConfig(0, 20), nil, nil)
	report, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sim.Devices) != 1 || !report.Converged {
		t.Fatalf("expected one converged device, got %d devices", len(sim.Devices))
	}
}

func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSimulator(testConfig(2, 10), nil, nil).Run(ctx); err == nil {
		t.Fatal("expected the cancelled context to stop the run")
	}
}
