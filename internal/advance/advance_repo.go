package advance

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=advance_repo.go -destination=mock/advance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Tx(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, a *Advance) error
	FindByID(ctx context.Context, id string) (*Advance, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Advance, error)
	FindPage(ctx context.Context, employeeID, status string, limit, offset int) ([]Advance, error)
	CountAll(ctx context.Context, employeeID, status string) (int64, error)
	FindActiveByEmployee(ctx context.Context, employeeID string) ([]Advance, error)
	FindActiveByEmployeeForUpdate(ctx context.Context, employeeID string) ([]Advance, error)
	Update(ctx context.Context, a *Advance) error
	UpdateMonthlyDeductionForActive(ctx context.Context, employeeID string, amount decimal.Decimal) (int64, error)
	Delete(ctx context.Context, id string) error

	CreateEntry(ctx context.Context, e *RepaymentEntry) error
	FindEntryByID(ctx context.Context, id string) (*RepaymentEntry, error)
	FindEntriesByEmployee(ctx context.Context, employeeID string) ([]RepaymentEntry, error)
	FindEntriesByAdvance(ctx context.Context, advanceID string) ([]RepaymentEntry, error)
	HasEntries(ctx context.Context, advanceID string) (bool, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteEntriesByAdvance(ctx context.Context, advanceID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Tx menjalankan fn dalam satu transaksi database; rollback otomatis kalau fn error.
func (r *repository) Tx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *repository) Create(ctx context.Context, a *Advance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Advance, error) {
	var a Advance
	err := r.db.WithContext(ctx).
		First(&a, "id = ?", id).Error
	return &a, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Advance, error) {
	var a Advance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	return &a, err
}

func (r *repository) FindPage(ctx context.Context, employeeID, status string, limit, offset int) ([]Advance, error) {
	db := r.db.WithContext(ctx).Model(&Advance{})
	if employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var advances []Advance
	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&advances).Error
	return advances, err
}

func (r *repository) CountAll(ctx context.Context, employeeID, status string) (int64, error) {
	db := r.db.WithContext(ctx).Model(&Advance{})
	if employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *repository) FindActiveByEmployee(ctx context.Context, employeeID string) ([]Advance, error) {
	var advances []Advance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusApproved, StatusPartiallyRepaid}).
		Order("(amount - repaid_amount) ASC, id ASC").
		Find(&advances).Error
	return advances, err
}

// FindActiveByEmployeeForUpdate mengunci baris (FOR UPDATE) dengan urutan
// sisa saldo terkecil dulu; id sebagai tie-break supaya deterministik.
func (r *repository) FindActiveByEmployeeForUpdate(ctx context.Context, employeeID string) ([]Advance, error) {
	var advances []Advance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusApproved, StatusPartiallyRepaid}).
		Order("(amount - repaid_amount) ASC, id ASC").
		Find(&advances).Error
	return advances, err
}

func (r *repository) Update(ctx context.Context, a *Advance) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) UpdateMonthlyDeductionForActive(ctx context.Context, employeeID string, amount decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Advance{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusApproved, StatusPartiallyRepaid}).
		Update("monthly_deduction", amount)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Advance{}, "id = ?", id).Error
}

func (r *repository) CreateEntry(ctx context.Context, e *RepaymentEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindEntryByID(ctx context.Context, id string) (*RepaymentEntry, error) {
	var e RepaymentEntry
	err := r.db.WithContext(ctx).
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindEntriesByEmployee(ctx context.Context, employeeID string) ([]RepaymentEntry, error) {
	var entries []RepaymentEntry
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("payment_date DESC NULLS LAST, created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) FindEntriesByAdvance(ctx context.Context, advanceID string) ([]RepaymentEntry, error) {
	var entries []RepaymentEntry
	err := r.db.WithContext(ctx).
		Where("advance_id = ?", advanceID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) HasEntries(ctx context.Context, advanceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RepaymentEntry{}).
		Where("advance_id = ?", advanceID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DeleteEntry(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&RepaymentEntry{}, "id = ?", id).Error
}

func (r *repository) DeleteEntriesByAdvance(ctx context.Context, advanceID string) error {
	return r.db.WithContext(ctx).
		Where("advance_id = ?", advanceID).
		Delete(&RepaymentEntry{}).Error
}
