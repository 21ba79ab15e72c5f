package advanceerrors

import (
	"net/http"

	"go-advance/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidAdvanceID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid advance id",
		http.StatusBadRequest,
	)
	ErrInvalidEntryID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid repayment id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrPaymentDateRequired = apperror.New(
		apperror.CodeInvalidInput,
		"payment_date is required",
		http.StatusBadRequest,
	)
	ErrInvalidPrincipal = apperror.New(
		apperror.CodeInvalidInput,
		"principal amount must be greater than zero",
		http.StatusBadRequest,
	)
	ErrInvalidMonthlyDeduction = apperror.New(
		apperror.CodeInvalidInput,
		"monthly deduction must be zero or greater and not exceed the principal amount",
		http.StatusBadRequest,
	)
	ErrInvalidRepaymentAmount = apperror.New(
		apperror.CodeInvalidInput,
		"repayment amount must be greater than zero",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting an advance",
		http.StatusBadRequest,
	)

	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrAdvanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"advance not found",
		http.StatusNotFound,
	)
	ErrRepaymentNotFound = apperror.New(
		apperror.CodeNotFound,
		"repayment record not found",
		http.StatusNotFound,
	)

	ErrNoActiveAdvances = apperror.New(
		apperror.CodeInvalidState,
		"employee has no active advances to repay",
		http.StatusUnprocessableEntity,
	)
	ErrAmountBelowMinimum = apperror.New(
		apperror.CodeInvalidInput,
		"repayment amount must cover at least the total monthly deduction",
		http.StatusUnprocessableEntity,
	)
	ErrAmountExceedsBalance = apperror.New(
		apperror.CodeInvalidInput,
		"repayment amount cannot exceed the total remaining balance",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"only pending advances can be approved or rejected",
		http.StatusBadRequest,
	)

	ErrApprovalNotAllowed = apperror.New(
		apperror.CodeForbidden,
		"you do not have permission to approve or reject advances",
		http.StatusForbidden,
	)
	ErrAdvanceImmutable = apperror.New(
		apperror.CodeForbidden,
		"this advance can no longer be updated",
		http.StatusForbidden,
	)
	ErrPrincipalImmutable = apperror.New(
		apperror.CodeForbidden,
		"the principal amount of an approved advance cannot be changed",
		http.StatusForbidden,
	)
	ErrAdvanceNotDeletable = apperror.New(
		apperror.CodeForbidden,
		"this advance can no longer be deleted",
		http.StatusForbidden,
	)
	ErrHasRepayments = apperror.New(
		apperror.CodeConflict,
		"this advance has repayments recorded against it and cannot be deleted",
		http.StatusConflict,
	)
	ErrReferenceNumberConflict = apperror.New(
		apperror.CodeConflict,
		"reference number already exists, please retry",
		http.StatusConflict,
	)
	ErrOwnershipMismatch = apperror.New(
		apperror.CodeForbidden,
		"repayment record does not belong to this employee",
		http.StatusForbidden,
	)
)
