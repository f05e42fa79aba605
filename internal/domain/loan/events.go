package loan

import "time"

type EventName string

const (
	EventListed       EventName = "loan.listed"
	EventBidPlaced    EventName = "loan.bid_placed"
	EventBidCancelled EventName = "loan.bid_cancelled"
	EventAccepted     EventName = "loan.accepted"
	EventRepaid       EventName = "loan.repaid"
	EventDefaulted    EventName = "loan.defaulted"
	EventDelisted     EventName = "loan.delisted"
)

// Event is emitted once per committed transition and carries the loan as it
// stood right after the transition.
type Event struct {
	ID         string
	Name       EventName
	OccurredAt time.Time
	Loan       *Loan
}

// Emitter receives committed events. Implementations must not call back into
// the engine synchronously.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}
