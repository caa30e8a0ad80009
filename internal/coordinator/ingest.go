package coordinator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/alpenava/nayax-bridge/internal/api"
	"github.com/alpenava/nayax-bridge/internal/models"
)

// Alias chains for vendor sale records, in priority order. The timestamp
// chain covers authorization, settlement and generic fields because
// different vendor deployments populate different ones.
var (
	settlementValueKeys = []string{"SettlementValue", "settlementValue", "amount"}
	transactionIDKeys   = []string{"TransactionID", "transactionId", "id"}
	currencyKeys        = []string{"Currency", "currency", "CurrencyCode"}
	productNameKeys     = []string{"ProductName", "productName", "Product", "product"}
	paymentMethodKeys   = []string{"PaymentMethod", "paymentMethod", "PaymentType", "paymentType"}
	siteNameKeys        = []string{"SiteName", "siteName"}
	timestampKeys       = []string{
		"AuthorizationDateTimeGMT", "authorizationDateTimeGmt",
		"AuthorizationTimeGMT", "authorizationTimeGmt",
		"MachineAuthorizationTime", "machineAuthorizationTime",
		"SettlementDateTimeGMT", "settlementDateTimeGmt",
		"Timestamp", "timestamp",
		"DateTime", "dateTime",
	}
)

// pollMachineSales ingests the recent sales window for one machine. All
// returned records are processed, not just the newest: that tolerates
// pagination gaps and out-of-order delivery, so a sale missed in one cycle
// is still picked up while it remains in the window. A fetch failure skips
// this machine for this cycle only; auth failures propagate.
func (c *Coordinator) pollMachineSales(ctx context.Context, machine models.Machine) error {
	sales, err := c.client.GetLastSales(ctx, machine.ID)
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return err
		}
		api.APIErrors.WithLabelValues(errorKind(err)).Inc()
		c.log.Warn("failed to get sales for machine",
			zap.String("machine_id", machine.ID),
			zap.String("name", machine.Name),
			zap.Error(err),
		)
		return nil
	}

	if len(sales) == 0 {
		c.log.Debug("no sales data for machine", zap.String("machine_id", machine.ID))
		return nil
	}

	var events []models.SaleEvent
	newCount, updatedCount := 0, 0

	c.mu.Lock()
	if c.history[machine.ID] == nil {
		c.history[machine.ID] = make(map[string]models.Transaction)
	}
	machineHistory := c.history[machine.ID]

	for _, sale := range sales {
		amount, ok := numberAlias(sale, settlementValueKeys...)
		if !ok || amount <= 0 {
			// Not a completed sale.
			continue
		}

		txID := stringAlias(sale, transactionIDKeys...)
		if txID == "" {
			c.log.Warn("transaction without ID found", zap.String("machine_id", machine.ID))
			continue
		}

		tx := c.extractSaleData(machine, txID, amount, sale)

		existing, seen := machineHistory[txID]
		if !seen {
			machineHistory[txID] = tx
			newCount++

			c.log.Info("new sale detected",
				zap.String("machine", machine.Name),
				zap.String("transaction_id", txID),
				zap.Float64("amount", tx.Amount),
				zap.String("currency", tx.Currency),
			)

			events = append(events, c.buildSaleEvent(tx, sale))
		} else if existing.Changed(tx) {
			machineHistory[txID] = tx
			updatedCount++
			c.log.Debug("updated transaction",
				zap.String("transaction_id", txID),
				zap.String("machine_id", machine.ID),
			)
		}
	}
	c.mu.Unlock()

	for _, event := range events {
		if err := c.sink.PublishSale(ctx, event); err != nil {
			c.log.Warn("failed to publish sale event",
				zap.String("transaction_id", event.Sale.TransactionID),
				zap.Error(err),
			)
		}
	}

	if newCount > 0 || updatedCount > 0 {
		api.NewSales.Add(float64(newCount))
		api.UpdatedSales.Add(float64(updatedCount))
		c.log.Debug("machine sales processed",
			zap.String("machine_id", machine.ID),
			zap.Int("new", newCount),
			zap.Int("updated", updatedCount),
		)
	}
	return nil
}

func (c *Coordinator) extractSaleData(machine models.Machine, txID string, amount float64, sale map[string]any) models.Transaction {
	currency := stringAlias(sale, currencyKeys...)
	if currency == "" {
		currency = "EUR"
	}
	product := stringAlias(sale, productNameKeys...)
	if product == "" {
		product = "Unknown Product"
	}
	payment := stringAlias(sale, paymentMethodKeys...)
	if payment == "" {
		payment = "Unknown"
	}

	return models.Transaction{
		MachineID:     machine.ID,
		MachineName:   machine.Name,
		TransactionID: txID,
		Amount:        amount,
		Currency:      currency,
		ProductName:   product,
		PaymentMethod: payment,
		Timestamp:     stringAlias(sale, timestampKeys...),
		SiteName:      stringAlias(sale, siteNameKeys...),
	}
}

func (c *Coordinator) buildSaleEvent(tx models.Transaction, raw map[string]any) models.SaleEvent {
	event := models.SaleEvent{
		EventID: newEventID(),
		Event:   SaleEventName,
		Sale:    tx,
	}
	if c.cfg.IncludeRawData {
		event.Raw = raw
	}
	return event
}
