package registry

import (
	"sync"

	"go.uber.org/zap"
)

const (
	Manufacturer = "Nayax"
	Model        = "Vending Machine"
)

// Device is the static metadata registered once per machine.
type Device struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

// DeviceRegistry is the host application's device registry. Registration is
// idempotent: re-registering an existing id updates its name.
type DeviceRegistry interface {
	Register(device Device)
}

// LogRegistry keeps the devices in memory and logs first sightings. It
// stands in for a real host registry.
type LogRegistry struct {
	mu      sync.Mutex
	devices map[string]Device
	log     *zap.Logger
}

func NewLogRegistry(log *zap.Logger) *LogRegistry {
	return &LogRegistry{
		devices: make(map[string]Device),
		log:     log,
	}
}

func (r *LogRegistry) Register(device Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.ID]; !ok {
		r.log.Info("registered device",
			zap.String("id", device.ID),
			zap.String("name", device.Name),
		)
	}
	r.devices[device.ID] = device
}

// Devices returns a snapshot of everything registered so far.
func (r *LogRegistry) Devices() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}
