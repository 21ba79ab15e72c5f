package advance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending         = "pending"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPartiallyRepaid = "partially_repaid"
	StatusFullyRepaid     = "fully_repaid"
)

type Advance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_advances_employee_status"`

	ReferenceNumber  string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	Amount           decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	RepaidAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	MonthlyDeduction decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	EstimatedMonths  int             `gorm:"type:int;not null;default:0"`
	Reason           string          `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_advances_employee_status"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index:idx_advances_deleted_at"`
}

// RemainingBalance = Amount - RepaidAmount, tidak pernah disimpan di kolom.
func (a *Advance) RemainingBalance() decimal.Decimal {
	return a.Amount.Sub(a.RepaidAmount)
}

// IsActive: hanya advance berstatus approved / partially_repaid yang bisa dicicil.
func (a *Advance) IsActive() bool {
	return a.Status == StatusApproved || a.Status == StatusPartiallyRepaid
}

type RepaymentEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AdvanceID  uuid.UUID `gorm:"type:uuid;not null;index:idx_repayment_entries_advance"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_repayment_entries_employee"`

	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaymentDate *time.Time      `gorm:"type:date"`
	Notes       string          `gorm:"type:text"`
	RecordedBy  uuid.UUID       `gorm:"type:uuid;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_repayment_entries_deleted_at"`
}
