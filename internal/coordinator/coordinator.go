package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/alpenava/nayax-bridge/internal/api"
	"github.com/alpenava/nayax-bridge/internal/config"
	"github.com/alpenava/nayax-bridge/internal/models"
	"github.com/alpenava/nayax-bridge/internal/registry"
	"github.com/alpenava/nayax-bridge/internal/storage"
	"github.com/alpenava/nayax-bridge/internal/timeutil"
)

// SaleEventName identifies sale events in published payloads.
const SaleEventName = "nayax.sale"

// VendorClient is the slice of the API client the coordinator needs.
type VendorClient interface {
	GetMachines(ctx context.Context) ([]map[string]any, error)
	GetLastSales(ctx context.Context, machineID string) ([]map[string]any, error)
}

// SaleSink receives one event per newly observed transaction.
type SaleSink interface {
	PublishSale(ctx context.Context, event models.SaleEvent) error
}

// Coordinator owns the poll cycle: machine discovery, sale ingestion,
// age-based cleanup and persistence. It is the only mutator of the roster
// and the transaction history; read accessors take consistent snapshots
// under the same lock.
type Coordinator struct {
	client   VendorClient
	store    storage.Store
	sink     SaleSink
	registry registry.DeviceRegistry
	cfg      config.Config
	log      *zap.Logger

	mu            sync.RWMutex
	machines      map[string]models.Machine
	history       models.History
	lastDiscovery time.Time

	now func() time.Time
}

// New builds a coordinator and loads persisted state, migrating the legacy
// single-record-per-machine format into the history map if present.
func New(
	client VendorClient,
	store storage.Store,
	sink SaleSink,
	reg registry.DeviceRegistry,
	cfg config.Config,
	log *zap.Logger,
) (*Coordinator, error) {
	c := &Coordinator{
		client:   client,
		store:    store,
		sink:     sink,
		registry: reg,
		cfg:      cfg,
		log:      log,
		machines: make(map[string]models.Machine),
		history:  models.History{},
		now:      time.Now,
	}
	if err := c.loadPersistedState(context.Background()); err != nil {
		return nil, fmt.Errorf("load persisted state: %w", err)
	}
	return c, nil
}

func (c *Coordinator) loadPersistedState(ctx context.Context) error {
	history, err := c.store.LoadHistory(ctx)
	if err != nil {
		return err
	}
	c.history = history

	total := 0
	for _, txs := range c.history {
		total += len(txs)
	}
	c.log.Debug("loaded transaction history",
		zap.Int("transactions", total),
		zap.Int("machines", len(c.history)),
	)

	return c.migrateLegacyData(ctx)
}

// migrateLegacyData folds the old one-record-per-machine blob into the
// history map. Transactions already present are left alone, so running the
// migration twice is harmless.
func (c *Coordinator) migrateLegacyData(ctx context.Context) error {
	legacy, err := c.store.LoadLegacyLastSales(ctx)
	if err != nil {
		return err
	}
	if len(legacy) == 0 {
		return nil
	}

	migrated := 0
	for machineID, tx := range legacy {
		if tx.TransactionID == "" {
			continue
		}
		if _, ok := c.history[machineID][tx.TransactionID]; ok {
			continue
		}
		if c.history[machineID] == nil {
			c.history[machineID] = make(map[string]models.Transaction)
		}
		c.history[machineID][tx.TransactionID] = tx
		migrated++
	}

	if migrated > 0 {
		c.log.Info("migrated transactions from legacy format", zap.Int("count", migrated))
	}
	return nil
}

// Run performs one poll cycle immediately and then on every tick until the
// context is cancelled. Auth failures are terminal; transient API failures
// abort the current cycle only.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.runCycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.runCycle(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Coordinator) runCycle(ctx context.Context) error {
	err := c.PollOnce(ctx)
	if err == nil {
		return nil
	}

	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		c.log.Error("authentication failed, stopping", zap.Error(err))
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	api.PollFailures.Inc()
	c.log.Warn("poll cycle failed, will retry next tick", zap.Error(err))
	return nil
}

// PollOnce executes one full cycle: conditional discovery, per-machine sale
// ingestion, persistence and cleanup.
func (c *Coordinator) PollOnce(ctx context.Context) error {
	tracer := otel.Tracer("nayax-bridge/coordinator")
	ctx, span := tracer.Start(ctx, "poll_cycle")
	defer span.End()

	start := c.now()
	defer func() {
		api.CycleDuration.Observe(c.now().Sub(start).Seconds())
	}()

	if err := c.maybeDiscoverMachines(ctx); err != nil {
		return err
	}
	if err := c.pollAllSales(ctx); err != nil {
		return err
	}
	c.cleanupOldTransactions()

	api.PollCycles.Inc()
	return nil
}

func (c *Coordinator) pollAllSales(ctx context.Context) error {
	c.mu.RLock()
	machines := make([]models.Machine, 0, len(c.machines))
	for _, m := range c.machines {
		machines = append(machines, m)
	}
	c.mu.RUnlock()

	if len(machines) == 0 {
		c.log.Debug("no machines to poll")
		return nil
	}

	for _, machine := range machines {
		if err := c.pollMachineSales(ctx, machine); err != nil {
			return err
		}
	}

	return c.persistState(ctx)
}

func (c *Coordinator) persistState(ctx context.Context) error {
	c.mu.RLock()
	snapshot := copyHistory(c.history)
	c.mu.RUnlock()

	if err := c.store.SaveHistory(ctx, snapshot); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func copyHistory(h models.History) models.History {
	out := make(models.History, len(h))
	for machineID, txs := range h {
		inner := make(map[string]models.Transaction, len(txs))
		for id, tx := range txs {
			inner[id] = tx
		}
		out[machineID] = inner
	}
	return out
}

// cleanupOldTransactions purges history entries older than Jan 1 of the
// prior calendar year (UTC). Entries with unparseable timestamps stay.
func (c *Coordinator) cleanupOldTransactions() {
	now := c.now().UTC()
	cutoff := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)

	c.mu.Lock()
	removed := 0
	for _, txs := range c.history {
		for id, tx := range txs {
			t, ok := timeutil.ParseTimestamp(tx.Timestamp)
			if ok && t.Before(cutoff) {
				delete(txs, id)
				removed++
			}
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		api.PurgedTransactions.Add(float64(removed))
		c.log.Info("cleaned up old transactions", zap.Int("count", removed))
	}
}

// Machines returns a snapshot of the current roster.
func (c *Coordinator) Machines() map[string]models.Machine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Machine, len(c.machines))
	for id, m := range c.machines {
		out[id] = m
	}
	return out
}

// TransactionHistory returns a snapshot of the full history map.
func (c *Coordinator) TransactionHistory() models.History {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyHistory(c.history)
}

func newEventID() string {
	return uuid.NewString()
}
