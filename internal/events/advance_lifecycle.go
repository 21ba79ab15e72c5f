package events

import "time"

const AdvanceLifecycleTopic = "erp.advance.lifecycle.v1"

const (
	AdvanceRequestedEventType = "advance_requested"
	AdvanceApprovedEventType  = "advance_approved"
	AdvanceRejectedEventType  = "advance_rejected"
	AdvanceDeletedEventType   = "advance_deleted"
)

type AdvanceLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	AdvanceID  string    `json:"advance_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	Amount     string    `json:"amount"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
