package types

// EventKind discriminates ledger and market events.
type EventKind string

const (
	// EventTransferred is emitted after a successful transfer.
	// [asset, from, to, amount]
	EventTransferred EventKind = "Transferred"
	// EventDeposited is emitted after a successful deposit. [asset, who, amount]
	EventDeposited EventKind = "Deposited"
	// EventWithdrawn is emitted after a successful withdrawal. [asset, who, amount]
	EventWithdrawn EventKind = "Withdrawn"
	// EventBalanceUpdated is emitted after a privileged balance
	// adjustment. [asset, who, amount]
	EventBalanceUpdated EventKind = "BalanceUpdated"
	// EventSerpedUpSupply is emitted after a supply expansion. [asset, amount]
	EventSerpedUpSupply EventKind = "SerpedUpSupply"
	// EventSerpedDownSupply is emitted after a supply contraction. [asset, amount]
	EventSerpedDownSupply EventKind = "SerpedDownSupply"
	// EventNewPrice reports the serp-quoted price used by the last
	// supply operation. [asset, price]
	EventNewPrice EventKind = "NewPrice"
)

// Event is the structured record delivered to the event sink after a
// successful mutating call. Participant fields are filled per kind.
type Event struct {
	Kind   EventKind `json:"kind"`
	Asset  AssetID   `json:"asset"`
	From   AccountID `json:"from,omitempty"`
	To     AccountID `json:"to,omitempty"`
	Who    AccountID `json:"who,omitempty"`
	Amount Balance   `json:"amount"`
}

// EventSink receives events from the ledger and the market. Events are
// delivered only after the originating operation has committed.
type EventSink interface {
	Publish(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) {}
