package coordinator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alpenava/nayax-bridge/internal/api"
	"github.com/alpenava/nayax-bridge/internal/models"
	"github.com/alpenava/nayax-bridge/internal/registry"
)

// Alias chains for vendor machine records. The vendor API is inconsistent
// about key casing across endpoints; the priority order matters.
var (
	machineIDKeys   = []string{"MachineID", "MachineId", "machineId", "id"}
	machineNameKeys = []string{"MachineName", "machineName", "name"}
)

// maybeDiscoverMachines refreshes the roster when it is empty or the
// discovery interval has elapsed. Discovery failures are non-fatal (the
// last-known-good roster stays in effect) except for auth failures; the
// discovery timestamp only advances on success, so a failed attempt is
// retried on the very next cycle.
func (c *Coordinator) maybeDiscoverMachines(ctx context.Context) error {
	c.mu.RLock()
	empty := len(c.machines) == 0
	last := c.lastDiscovery
	c.mu.RUnlock()

	now := c.now()
	if !empty && now.Sub(last) <= c.cfg.DiscoveryInterval {
		return nil
	}

	if err := c.discoverMachines(ctx); err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return err
		}
		api.APIErrors.WithLabelValues(errorKind(err)).Inc()
		c.log.Error("failed to discover machines", zap.Error(err))
		return nil
	}

	c.mu.Lock()
	c.lastDiscovery = now
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) discoverMachines(ctx context.Context) error {
	c.log.Debug("discovering machines")

	machinesData, err := c.client.GetMachines(ctx)
	if err != nil {
		return err
	}

	newMachines := make(map[string]models.Machine, len(machinesData))
	for _, raw := range machinesData {
		machineID := stringAlias(raw, machineIDKeys...)
		if machineID == "" {
			c.log.Warn("machine without ID found, skipping", zap.Any("machine", raw))
			continue
		}

		name := stringAlias(raw, machineNameKeys...)
		if name == "" {
			name = fmt.Sprintf("Nayax Machine %s", machineID)
		}

		newMachines[machineID] = models.Machine{
			ID:   machineID,
			Name: name,
			Raw:  raw,
		}

		c.registry.Register(registry.Device{
			ID:           machineID,
			Name:         name,
			Manufacturer: registry.Manufacturer,
			Model:        registry.Model,
		})

		c.log.Debug("registered machine",
			zap.String("name", name),
			zap.String("machine_id", machineID),
		)
	}

	c.mu.Lock()
	for id, old := range c.machines {
		if _, ok := newMachines[id]; !ok {
			c.log.Info("machine no longer found in API response",
				zap.String("machine_id", id),
				zap.String("name", old.Name),
			)
		}
	}
	for id, m := range newMachines {
		if _, ok := c.machines[id]; !ok {
			c.log.Info("new machine discovered",
				zap.String("machine_id", id),
				zap.String("name", m.Name),
			)
		}
	}
	c.machines = newMachines
	c.mu.Unlock()

	api.MachineCount.Set(float64(len(newMachines)))
	c.log.Debug("machine discovery complete", zap.Int("machines", len(newMachines)))
	return nil
}

func errorKind(err error) string {
	var apiErr *api.APIError
	var connErr *api.ConnectionError
	switch {
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &connErr):
		return "connection"
	default:
		return "other"
	}
}
