package events

import "time"

const AdvanceRepaymentTopic = "erp.advance.repayment.v1"

const (
	RepaymentRecordedEventType = "repayment_recorded"
	RepaymentReversedEventType = "repayment_reversed"
)

type RepaymentAllocation struct {
	AdvanceID        string `json:"advance_id"`
	Applied          string `json:"applied"`
	RemainingBalance string `json:"remaining_balance"`
	Status           string `json:"status"`
}

type AdvanceRepaymentEvent struct {
	EventType   string                `json:"event_type"`
	RequestID   string                `json:"request_id,omitempty"`
	EmployeeID  string                `json:"employee_id"`
	Amount      string                `json:"amount"`
	Allocations []RepaymentAllocation `json:"allocations,omitempty"`
	ActorID     string                `json:"actor_id"`
	OccurredAt  time.Time             `json:"occurred_at"`
}
