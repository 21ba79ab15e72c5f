package advance

type CreateAdvanceRequest struct {
	EmployeeID       string `json:"employee_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required"`
	MonthlyDeduction string `json:"monthly_deduction"`
	EstimatedMonths  int    `json:"estimated_months" binding:"omitempty,min=0"`
	Reason           string `json:"reason"`
}

type UpdateAdvanceRequest struct {
	Amount           *string `json:"amount"`
	MonthlyDeduction *string `json:"monthly_deduction"`
	EstimatedMonths  *int    `json:"estimated_months" binding:"omitempty,min=0"`
	Reason           *string `json:"reason"`
}

type DecisionRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

type RecordRepaymentRequest struct {
	Amount      string `json:"amount" binding:"required"`
	PaymentDate string `json:"payment_date" binding:"required"`
	Notes       string `json:"notes"`
}

type UpdateMonthlyDeductionsRequest struct {
	MonthlyDeduction string `json:"monthly_deduction" binding:"required"`
}

type AdvanceResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	ReferenceNumber  string  `json:"reference_number"`
	Amount           string  `json:"amount"`
	RepaidAmount     string  `json:"repaid_amount"`
	RemainingBalance string  `json:"remaining_balance"`
	MonthlyDeduction string  `json:"monthly_deduction"`
	EstimatedMonths  int     `json:"estimated_months"`
	Reason           string  `json:"reason"`
	Status           string  `json:"status"`
	CreatedBy        string  `json:"created_by"`
	ApprovedBy       *string `json:"approved_by,omitempty"`
	ApprovedAt       *string `json:"approved_at,omitempty"`
	RejectionReason  *string `json:"rejection_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type RepaymentEntryResponse struct {
	ID          string  `json:"id"`
	AdvanceID   string  `json:"advance_id"`
	EmployeeID  string  `json:"employee_id"`
	Amount      string  `json:"amount"`
	PaymentDate *string `json:"payment_date,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	RecordedBy  string  `json:"recorded_by"`
	CreatedAt   string  `json:"created_at"`
}

// AllocationSlice: satu potongan alokasi ke satu advance.
type AllocationSlice struct {
	AdvanceID        string `json:"advance_id"`
	ReferenceNumber  string `json:"reference_number"`
	Applied          string `json:"applied"`
	RemainingBalance string `json:"remaining_balance"`
	Status           string `json:"status"`
}

type RepaymentResult struct {
	Entries     []RepaymentEntryResponse `json:"entries"`
	Allocations []AllocationSlice        `json:"allocations"`
	TotalPaid   string                   `json:"total_paid"`
}

type OutstandingBalanceResponse struct {
	EmployeeID            string            `json:"employee_id"`
	TotalRemainingBalance string            `json:"total_remaining_balance"`
	TotalMonthlyDeduction string            `json:"total_monthly_deduction"`
	ActiveAdvances        []AdvanceResponse `json:"active_advances"`
}

type MonthlyHistoryGroup struct {
	Month   string                   `json:"month"`
	Total   string                   `json:"total"`
	Entries []RepaymentEntryResponse `json:"entries"`
}

type MonthlyHistoryResponse struct {
	EmployeeID string                `json:"employee_id"`
	Months     []MonthlyHistoryGroup `json:"months"`
}

type ReceiptResponse struct {
	Entry        RepaymentEntryResponse `json:"entry"`
	Advance      AdvanceResponse        `json:"advance"`
	EmployeeName string                 `json:"employee_name"`
	IssuedAt     string                 `json:"issued_at"`
}

type UpdateMonthlyDeductionsResult struct {
	EmployeeID       string `json:"employee_id"`
	MonthlyDeduction string `json:"monthly_deduction"`
	UpdatedCount     int64  `json:"updated_count"`
}
