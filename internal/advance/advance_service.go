package advance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	advanceerrors "go-advance/internal/advance/errors"
	"go-advance/internal/employee"
	"go-advance/internal/events"
	"go-advance/internal/messaging/kafka"
	"go-advance/internal/rbac"
	"go-advance/internal/shared/contextutil"
	"go-advance/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const BalanceKeyPrefix = "advances:balance:"

func GetBalanceKey(employeeID string) string {
	return BalanceKeyPrefix + employeeID
}

//go:generate mockgen -source=advance_service.go -destination=mock/advance_service_mock.go -package=mock
type Service interface {
	Request(ctx context.Context, actorID string, req CreateAdvanceRequest) (AdvanceResponse, error)
	GetAll(ctx context.Context, employeeID, status string, limit, offset int) ([]AdvanceResponse, int64, error)
	GetByID(ctx context.Context, id string) (AdvanceResponse, error)
	GetRepayments(ctx context.Context, id string) ([]RepaymentEntryResponse, error)
	Approve(ctx context.Context, actorID, id string) (AdvanceResponse, error)
	Reject(ctx context.Context, actorID, id, rejectionReason string) (AdvanceResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdateAdvanceRequest) (AdvanceResponse, error)
	Delete(ctx context.Context, actorID, id string) error
	RecordRepayment(ctx context.Context, actorID, employeeID string, req RecordRepaymentRequest) (RepaymentResult, error)
	DeleteRepayment(ctx context.Context, actorID, employeeID, entryID string) error
	UpdateMonthlyDeductions(ctx context.Context, actorID, employeeID string, req UpdateMonthlyDeductionsRequest) (UpdateMonthlyDeductionsResult, error)
	GetOutstandingBalance(ctx context.Context, employeeID string) (OutstandingBalanceResponse, error)
	GetMonthlyHistory(ctx context.Context, employeeID string) (MonthlyHistoryResponse, error)
	GetReceipt(ctx context.Context, employeeID, entryID string) (ReceiptResponse, error)
}

type service struct {
	repo      Repository
	employees employee.Repository
	counter   counter.Repository
	outbox    kafka.OutboxRepository
	perms     rbac.AdvancePermissions
	rdb       *redis.Client
	sf        *singleflight.Group
	logger    *zap.Logger
}

func NewService(
	repo Repository,
	employees employee.Repository,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	perms rbac.AdvancePermissions,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("advance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("advance.service")
	}
	return &service{
		repo:      repo,
		employees: employees,
		counter:   counterRepo,
		outbox:    outboxRepo,
		perms:     perms,
		rdb:       rdb,
		sf:        &singleflight.Group{},
		logger:    l,
	}
}

func (s *service) Request(ctx context.Context, actorID string, req CreateAdvanceRequest) (AdvanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("request advance",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("amount", req.Amount),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidActorID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidEmployeeID
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return AdvanceResponse{}, advanceerrors.ErrInvalidPrincipal
	}

	monthlyDeduction := decimal.Zero
	if req.MonthlyDeduction != "" {
		monthlyDeduction, err = decimal.NewFromString(req.MonthlyDeduction)
		if err != nil || monthlyDeduction.IsNegative() || monthlyDeduction.GreaterThan(amount) {
			return AdvanceResponse{}, advanceerrors.ErrInvalidMonthlyDeduction
		}
	}

	exists, err := s.employees.Exists(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("request advance employee check failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	if !exists {
		return AdvanceResponse{}, advanceerrors.ErrEmployeeNotFound
	}

	var a *Advance
	err = s.repo.Tx(ctx, func(qtx Repository) error {
		nextVal, err := s.counter.GetNextValue(ctx, "advance_reference")
		if err != nil {
			return err
		}

		a = &Advance{
			ID:               uuid.New(),
			EmployeeID:       employeeUUID,
			ReferenceNumber:  fmt.Sprintf("ADV-%06d", nextVal),
			Amount:           amount,
			RepaidAmount:     decimal.Zero,
			MonthlyDeduction: monthlyDeduction,
			EstimatedMonths:  req.EstimatedMonths,
			Reason:           req.Reason,
			Status:           StatusPending,
			CreatedBy:        actorUUID,
		}

		if err := qtx.Create(ctx, a); err != nil {
			return mapRepositoryError(err)
		}

		return s.queueLifecycleEvent(ctx, qtx, rid, actorID, a, events.AdvanceRequestedEventType)
	})
	if err != nil {
		s.logger.Error("request advance failed", zap.String("request_id", rid), zap.Error(err))
		return AdvanceResponse{}, err
	}

	s.invalidateBalanceCache(ctx, req.EmployeeID)
	s.logger.Info("request advance success",
		zap.String("request_id", rid),
		zap.String("advance_id", a.ID.String()),
		zap.String("reference_number", a.ReferenceNumber),
	)

	return mapToResponse(*a), nil
}

func (s *service) GetAll(ctx context.Context, employeeID, status string, limit, offset int) ([]AdvanceResponse, int64, error) {
	total, err := s.repo.CountAll(ctx, employeeID, status)
	if err != nil {
		return nil, 0, err
	}

	advances, err := s.repo.FindPage(ctx, employeeID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return mapToListResponse(advances), total, nil
}

func (s *service) GetByID(ctx context.Context, id string) (AdvanceResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidAdvanceID
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdvanceResponse{}, advanceerrors.ErrAdvanceNotFound
		}
		return AdvanceResponse{}, err
	}
	return mapToResponse(*a), nil
}

func (s *service) GetRepayments(ctx context.Context, id string) ([]RepaymentEntryResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, advanceerrors.ErrInvalidAdvanceID
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, advanceerrors.ErrAdvanceNotFound
		}
		return nil, err
	}

	entries, err := s.repo.FindEntriesByAdvance(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]RepaymentEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = mapEntryToResponse(e)
	}
	return resp, nil
}

func (s *service) Approve(ctx context.Context, actorID, id string) (AdvanceResponse, error) {
	return s.decide(ctx, actorID, id, StatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, actorID, id, rejectionReason string) (AdvanceResponse, error) {
	return s.decide(ctx, actorID, id, StatusRejected, &rejectionReason)
}

func (s *service) decide(ctx context.Context, actorID, id, targetStatus string, rejectionReason *string) (AdvanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("decide advance",
		zap.String("request_id", rid),
		zap.String("advance_id", id),
		zap.String("actor_id", actorID),
		zap.String("target_status", targetStatus),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidAdvanceID
	}

	allowed, err := s.perms.CanApprove(ctx, actorID)
	if err != nil {
		return AdvanceResponse{}, err
	}
	if !allowed {
		return AdvanceResponse{}, advanceerrors.ErrApprovalNotAllowed
	}

	if targetStatus == StatusRejected && (rejectionReason == nil || *rejectionReason == "") {
		return AdvanceResponse{}, advanceerrors.ErrRejectionReasonRequired
	}

	var a *Advance
	err = s.repo.Tx(ctx, func(qtx Repository) error {
		a, err = qtx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return advanceerrors.ErrAdvanceNotFound
			}
			return err
		}
		if a.Status != StatusPending {
			return advanceerrors.ErrInvalidStatusTransition
		}

		a.Status = targetStatus
		if targetStatus == StatusApproved {
			a.ApprovedBy = &actorUUID
			now := time.Now().UTC()
			a.ApprovedAt = &now
			a.RejectionReason = nil
		} else {
			a.ApprovedBy = nil
			a.ApprovedAt = nil
			a.RejectionReason = rejectionReason
		}

		if err := qtx.Update(ctx, a); err != nil {
			return err
		}

		eventType := events.AdvanceApprovedEventType
		if targetStatus == StatusRejected {
			eventType = events.AdvanceRejectedEventType
		}
		return s.queueLifecycleEvent(ctx, qtx, rid, actorID, a, eventType)
	})
	if err != nil {
		s.logger.Warn("decide advance failed",
			zap.String("advance_id", id),
			zap.String("target_status", targetStatus),
			zap.Error(err),
		)
		return AdvanceResponse{}, err
	}

	s.invalidateBalanceCache(ctx, a.EmployeeID.String())
	s.logger.Info("decide advance success",
		zap.String("advance_id", id),
		zap.String("status", targetStatus),
	)

	return mapToResponse(*a), nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateAdvanceRequest) (AdvanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update advance",
		zap.String("request_id", rid),
		zap.String("advance_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(actorID); err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return AdvanceResponse{}, advanceerrors.ErrInvalidAdvanceID
	}

	var a *Advance
	err := s.repo.Tx(ctx, func(qtx Repository) error {
		var err error
		a, err = qtx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return advanceerrors.ErrAdvanceNotFound
			}
			return err
		}

		if a.Status != StatusPending {
			override, err := s.perms.CanOverride(ctx, actorID)
			if err != nil {
				return err
			}
			if !override {
				return advanceerrors.ErrAdvanceImmutable
			}
			// Admin boleh menyesuaikan cicilan, bukan pokoknya.
			if req.Amount != nil {
				return advanceerrors.ErrPrincipalImmutable
			}
		}

		if req.Amount != nil {
			amount, err := decimal.NewFromString(*req.Amount)
			if err != nil || amount.LessThanOrEqual(decimal.Zero) {
				return advanceerrors.ErrInvalidPrincipal
			}
			a.Amount = amount
		}
		if req.MonthlyDeduction != nil {
			md, err := decimal.NewFromString(*req.MonthlyDeduction)
			if err != nil || md.IsNegative() || md.GreaterThan(a.Amount) {
				return advanceerrors.ErrInvalidMonthlyDeduction
			}
			a.MonthlyDeduction = md
		}
		if req.EstimatedMonths != nil {
			a.EstimatedMonths = *req.EstimatedMonths
		}
		if req.Reason != nil {
			a.Reason = *req.Reason
		}

		return qtx.Update(ctx, a)
	})
	if err != nil {
		s.logger.Warn("update advance failed", zap.String("advance_id", id), zap.Error(err))
		return AdvanceResponse{}, err
	}

	s.invalidateBalanceCache(ctx, a.EmployeeID.String())
	s.logger.Info("update advance success", zap.String("advance_id", id))

	return mapToResponse(*a), nil
}

func (s *service) Delete(ctx context.Context, actorID, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete advance",
		zap.String("request_id", rid),
		zap.String("advance_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(actorID); err != nil {
		return advanceerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return advanceerrors.ErrInvalidAdvanceID
	}

	var employeeID string
	err := s.repo.Tx(ctx, func(qtx Repository) error {
		a, err := qtx.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return advanceerrors.ErrAdvanceNotFound
			}
			return err
		}
		employeeID = a.EmployeeID.String()

		// Cek repayment duluan: guard ini berlaku untuk semua role.
		hasEntries, err := qtx.HasEntries(ctx, id)
		if err != nil {
			return err
		}
		if hasEntries {
			return advanceerrors.ErrHasRepayments
		}

		if a.Status != StatusPending {
			override, err := s.perms.CanOverride(ctx, actorID)
			if err != nil {
				return err
			}
			if !override {
				return advanceerrors.ErrAdvanceNotDeletable
			}
		}

		if err := qtx.DeleteEntriesByAdvance(ctx, id); err != nil {
			return err
		}
		if err := qtx.Delete(ctx, id); err != nil {
			return err
		}

		return s.queueLifecycleEvent(ctx, qtx, rid, actorID, a, events.AdvanceDeletedEventType)
	})
	if err != nil {
		s.logger.Warn("delete advance failed", zap.String("advance_id", id), zap.Error(err))
		return err
	}

	s.invalidateBalanceCache(ctx, employeeID)
	s.logger.Info("delete advance success", zap.String("advance_id", id))
	return nil
}

func (s *service) RecordRepayment(ctx context.Context, actorID, employeeID string, req RecordRepaymentRequest) (RepaymentResult, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("record repayment",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("employee_id", employeeID),
		zap.String("amount", req.Amount),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RepaymentResult{}, advanceerrors.ErrInvalidActorID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return RepaymentResult{}, advanceerrors.ErrInvalidEmployeeID
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return RepaymentResult{}, advanceerrors.ErrInvalidRepaymentAmount
	}

	// Tanpa payment_date entry tidak akan pernah muncul di rekap bulanan.
	if req.PaymentDate == "" {
		return RepaymentResult{}, advanceerrors.ErrPaymentDateRequired
	}
	d, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		return RepaymentResult{}, advanceerrors.ErrInvalidDateFormat
	}
	paymentDate := &d

	var result RepaymentResult
	err = s.repo.Tx(ctx, func(qtx Repository) error {
		advances, err := qtx.FindActiveByEmployeeForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}

		active := make([]*Advance, len(advances))
		for i := range advances {
			active[i] = &advances[i]
		}

		allocations, err := Allocate(active, amount)
		if err != nil {
			return err
		}

		result = RepaymentResult{TotalPaid: amount.StringFixed(2)}
		eventAllocations := make([]events.RepaymentAllocation, 0, len(allocations))
		for _, alloc := range allocations {
			entry := &RepaymentEntry{
				ID:          uuid.New(),
				AdvanceID:   alloc.Advance.ID,
				EmployeeID:  employeeUUID,
				Amount:      alloc.Applied,
				PaymentDate: paymentDate,
				Notes:       req.Notes,
				RecordedBy:  actorUUID,
			}
			if err := qtx.CreateEntry(ctx, entry); err != nil {
				return err
			}
			if err := qtx.Update(ctx, alloc.Advance); err != nil {
				return err
			}

			result.Entries = append(result.Entries, mapEntryToResponse(*entry))
			result.Allocations = append(result.Allocations, AllocationSlice{
				AdvanceID:        alloc.Advance.ID.String(),
				ReferenceNumber:  alloc.Advance.ReferenceNumber,
				Applied:          alloc.Applied.StringFixed(2),
				RemainingBalance: alloc.Advance.RemainingBalance().StringFixed(2),
				Status:           alloc.Advance.Status,
			})
			eventAllocations = append(eventAllocations, events.RepaymentAllocation{
				AdvanceID:        alloc.Advance.ID.String(),
				Applied:          alloc.Applied.StringFixed(2),
				RemainingBalance: alloc.Advance.RemainingBalance().StringFixed(2),
				Status:           alloc.Advance.Status,
			})
		}

		return s.queueRepaymentEvent(ctx, qtx, rid, actorID, employeeID,
			events.RepaymentRecordedEventType, amount, eventAllocations)
	})
	if err != nil {
		s.logger.Warn("record repayment failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return RepaymentResult{}, err
	}

	s.invalidateBalanceCache(ctx, employeeID)
	s.logger.Info("record repayment success",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.String("amount", amount.StringFixed(2)),
		zap.Int("allocations", len(result.Allocations)),
	)

	return result, nil
}

func (s *service) DeleteRepayment(ctx context.Context, actorID, employeeID, entryID string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete repayment",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("employee_id", employeeID),
		zap.String("entry_id", entryID),
	)

	if _, err := uuid.Parse(actorID); err != nil {
		return advanceerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return advanceerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(entryID); err != nil {
		return advanceerrors.ErrInvalidEntryID
	}

	err := s.repo.Tx(ctx, func(qtx Repository) error {
		entry, err := qtx.FindEntryByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return advanceerrors.ErrRepaymentNotFound
			}
			return err
		}
		if entry.EmployeeID.String() != employeeID {
			return advanceerrors.ErrOwnershipMismatch
		}

		a, err := qtx.FindByIDForUpdate(ctx, entry.AdvanceID.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return advanceerrors.ErrAdvanceNotFound
			}
			return err
		}

		a.RepaidAmount = a.RepaidAmount.Sub(entry.Amount)
		applyRepaymentStatus(a)

		if err := qtx.Update(ctx, a); err != nil {
			return err
		}
		if err := qtx.DeleteEntry(ctx, entryID); err != nil {
			return err
		}

		return s.queueRepaymentEvent(ctx, qtx, rid, actorID, employeeID,
			events.RepaymentReversedEventType, entry.Amount, nil)
	})
	if err != nil {
		s.logger.Warn("delete repayment failed", zap.String("entry_id", entryID), zap.Error(err))
		return err
	}

	s.invalidateBalanceCache(ctx, employeeID)
	s.logger.Info("delete repayment success",
		zap.String("entry_id", entryID),
		zap.String("employee_id", employeeID),
	)
	return nil
}

func (s *service) UpdateMonthlyDeductions(ctx context.Context, actorID, employeeID string, req UpdateMonthlyDeductionsRequest) (UpdateMonthlyDeductionsResult, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return UpdateMonthlyDeductionsResult{}, advanceerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return UpdateMonthlyDeductionsResult{}, advanceerrors.ErrInvalidEmployeeID
	}

	md, err := decimal.NewFromString(req.MonthlyDeduction)
	if err != nil || md.IsNegative() {
		return UpdateMonthlyDeductionsResult{}, advanceerrors.ErrInvalidMonthlyDeduction
	}

	var updated int64
	err = s.repo.Tx(ctx, func(qtx Repository) error {
		updated, err = qtx.UpdateMonthlyDeductionForActive(ctx, employeeID, md)
		return err
	})
	if err != nil {
		s.logger.Error("update monthly deductions failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return UpdateMonthlyDeductionsResult{}, err
	}

	s.invalidateBalanceCache(ctx, employeeID)
	s.logger.Info("update monthly deductions success",
		zap.String("employee_id", employeeID),
		zap.Int64("updated_count", updated),
	)

	return UpdateMonthlyDeductionsResult{
		EmployeeID:       employeeID,
		MonthlyDeduction: md.StringFixed(2),
		UpdatedCount:     updated,
	}, nil
}

func (s *service) GetOutstandingBalance(ctx context.Context, employeeID string) (OutstandingBalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return OutstandingBalanceResponse{}, advanceerrors.ErrInvalidEmployeeID
	}

	cacheKey := GetBalanceKey(employeeID)

	// 1. Cek Redis
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp OutstandingBalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// 2. Singleflight supaya payroll run tidak membanjiri DB
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		advances, err := s.repo.FindActiveByEmployee(ctx, employeeID)
		if err != nil {
			return nil, err
		}

		active := make([]*Advance, len(advances))
		for i := range advances {
			active[i] = &advances[i]
		}

		resp := OutstandingBalanceResponse{
			EmployeeID:            employeeID,
			TotalRemainingBalance: TotalRemainingBalance(active).StringFixed(2),
			TotalMonthlyDeduction: TotalMonthlyDeduction(active).StringFixed(2),
			ActiveAdvances:        mapToListResponse(advances),
		}

		// 3. TTL pendek; cache diinvalidasi setiap mutasi
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 5*time.Minute)
			}
		}

		return resp, nil
	})
	if err != nil {
		return OutstandingBalanceResponse{}, err
	}

	return v.(OutstandingBalanceResponse), nil
}

func (s *service) GetMonthlyHistory(ctx context.Context, employeeID string) (MonthlyHistoryResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return MonthlyHistoryResponse{}, advanceerrors.ErrInvalidEmployeeID
	}

	entries, err := s.repo.FindEntriesByEmployee(ctx, employeeID)
	if err != nil {
		return MonthlyHistoryResponse{}, err
	}

	groups := make(map[string]*MonthlyHistoryGroup)
	totals := make(map[string]decimal.Decimal)
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		// Entry tanpa payment_date tidak masuk rekap bulanan.
		if e.PaymentDate == nil {
			continue
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true

		month := e.PaymentDate.Format("2006-01")
		g, ok := groups[month]
		if !ok {
			g = &MonthlyHistoryGroup{Month: month}
			groups[month] = g
		}
		g.Entries = append(g.Entries, mapEntryToResponse(e))
		totals[month] = totals[month].Add(e.Amount)
	}

	months := make([]MonthlyHistoryGroup, 0, len(groups))
	for month, g := range groups {
		g.Total = totals[month].StringFixed(2)
		months = append(months, *g)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month > months[j].Month
	})

	return MonthlyHistoryResponse{
		EmployeeID: employeeID,
		Months:     months,
	}, nil
}

func (s *service) GetReceipt(ctx context.Context, employeeID, entryID string) (ReceiptResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return ReceiptResponse{}, advanceerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(entryID); err != nil {
		return ReceiptResponse{}, advanceerrors.ErrInvalidEntryID
	}

	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReceiptResponse{}, advanceerrors.ErrRepaymentNotFound
		}
		return ReceiptResponse{}, err
	}
	if entry.EmployeeID.String() != employeeID {
		return ReceiptResponse{}, advanceerrors.ErrOwnershipMismatch
	}

	a, err := s.repo.FindByID(ctx, entry.AdvanceID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReceiptResponse{}, advanceerrors.ErrAdvanceNotFound
		}
		return ReceiptResponse{}, err
	}

	empl, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReceiptResponse{}, advanceerrors.ErrEmployeeNotFound
		}
		return ReceiptResponse{}, err
	}

	return ReceiptResponse{
		Entry:        mapEntryToResponse(*entry),
		Advance:      mapToResponse(*a),
		EmployeeName: empl.FullName,
		IssuedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *service) queueLifecycleEvent(ctx context.Context, qtx Repository, rid, actorID string, a *Advance, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	event := events.AdvanceLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		AdvanceID:  a.ID.String(),
		EmployeeID: a.EmployeeID.String(),
		Status:     a.Status,
		Amount:     a.Amount.StringFixed(2),
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outboxFor(qtx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "advance",
		AggregateID:   a.ID.String(),
		EventType:     eventType,
		Topic:         events.AdvanceLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) queueRepaymentEvent(
	ctx context.Context,
	qtx Repository,
	rid, actorID, employeeID, eventType string,
	amount decimal.Decimal,
	allocations []events.RepaymentAllocation,
) error {
	if s.outbox == nil {
		return nil
	}

	event := events.AdvanceRepaymentEvent{
		EventType:   eventType,
		RequestID:   rid,
		EmployeeID:  employeeID,
		Amount:      amount.StringFixed(2),
		Allocations: allocations,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outboxFor(qtx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "repayment",
		AggregateID:   employeeID,
		EventType:     eventType,
		Topic:         events.AdvanceRepaymentTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// outboxFor menumpang transaksi gorm yang sedang dipakai repo advance.
func (s *service) outboxFor(qtx Repository) kafka.OutboxRepository {
	if r, ok := qtx.(*repository); ok {
		return s.outbox.WithTx(r.db)
	}
	return s.outbox
}

func (s *service) invalidateBalanceCache(ctx context.Context, employeeID string) {
	if s.rdb == nil || employeeID == "" {
		return
	}
	cacheKey := GetBalanceKey(employeeID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func mapToResponse(a Advance) AdvanceResponse {
	resp := AdvanceResponse{
		ID:               a.ID.String(),
		EmployeeID:       a.EmployeeID.String(),
		ReferenceNumber:  a.ReferenceNumber,
		Amount:           a.Amount.StringFixed(2),
		RepaidAmount:     a.RepaidAmount.StringFixed(2),
		RemainingBalance: a.RemainingBalance().StringFixed(2),
		MonthlyDeduction: a.MonthlyDeduction.StringFixed(2),
		EstimatedMonths:  a.EstimatedMonths,
		Reason:           a.Reason,
		Status:           a.Status,
		CreatedBy:        a.CreatedBy.String(),
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.ApprovedBy != nil {
		v := a.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if a.ApprovedAt != nil {
		v := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.RejectionReason = a.RejectionReason
	return resp
}

func mapToListResponse(advances []Advance) []AdvanceResponse {
	resp := make([]AdvanceResponse, len(advances))
	for i, a := range advances {
		resp[i] = mapToResponse(a)
	}
	return resp
}

func mapEntryToResponse(e RepaymentEntry) RepaymentEntryResponse {
	resp := RepaymentEntryResponse{
		ID:         e.ID.String(),
		AdvanceID:  e.AdvanceID.String(),
		EmployeeID: e.EmployeeID.String(),
		Amount:     e.Amount.StringFixed(2),
		Notes:      e.Notes,
		RecordedBy: e.RecordedBy.String(),
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.PaymentDate != nil {
		v := e.PaymentDate.Format("2006-01-02")
		resp.PaymentDate = &v
	}
	return resp
}
