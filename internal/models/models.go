package models

// Machine is the core domain object representing a vending machine known to
// the vendor account. Identity is the vendor-assigned id; Raw keeps the
// untouched vendor record for event payloads and debugging.
type Machine struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Raw  map[string]any `json:"raw,omitempty"`
}

// Transaction is a normalized sale record. Identity within a machine is the
// vendor transaction id. Timestamp stays in the vendor's source format and is
// parsed on demand.
type Transaction struct {
	MachineID     string  `json:"machine_id"`
	MachineName   string  `json:"machine_name"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	ProductName   string  `json:"product_name"`
	PaymentMethod string  `json:"payment_method"`
	Timestamp     string  `json:"timestamp"`
	SiteName      string  `json:"site_name,omitempty"`
}

// Changed reports whether any of the tracked fields differ from other.
// Only amount, product name and timestamp are compared; the remaining
// fields are never updated after first sighting.
func (t Transaction) Changed(other Transaction) bool {
	return t.Amount != other.Amount ||
		t.ProductName != other.ProductName ||
		t.Timestamp != other.Timestamp
}

// History maps machine id to that machine's transactions by transaction id.
type History = map[string]map[string]Transaction

// SaleEvent is the payload published once per newly observed transaction.
// Raw carries the untouched vendor record only when configured.
type SaleEvent struct {
	EventID string         `json:"event_id"`
	Event   string         `json:"event"`
	Sale    Transaction    `json:"sale"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// PeriodTotal is the aggregate over one named calendar bucket.
type PeriodTotal struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}
