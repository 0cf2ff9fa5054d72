package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys on the ledger exchange.
const (
	RoutingLedgerEvents  = "ledger.events"
	RoutingRecurringTick = "recurring.tick"
)

// Ledger entity names carried by LedgerEvent.
const (
	EntityCategory    = "category"
	EntityTransaction = "transaction"
	EntityGoal        = "goal"
	EntityRecurring   = "recurring"
	EntityLedger      = "ledger"
)

// Ledger operations carried by LedgerEvent.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpRestore = "restore"
	OpReset   = "reset"
)

// LedgerEvent announces a committed mutation. It carries only identifiers;
// consumers read current state from the ledger.
type LedgerEvent struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        string    `json:"id,omitempty"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(entity, op, id string, version uint64) *LedgerEvent {
	return &LedgerEvent{
		Entity:    entity,
		Op:        op,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RecurringTick asks the ledger to process recurring entries due at AsOf.
type RecurringTick struct {
	AsOf      time.Time `json:"asOf"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecurringTick(asOf time.Time) *RecurringTick {
	return &RecurringTick{AsOf: asOf, Timestamp: time.Now()}
}

func (m *RecurringTick) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecurringTickFromJSON(data []byte) (*RecurringTick, error) {
	var msg RecurringTick
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
