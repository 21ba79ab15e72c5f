package advance_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-advance/internal/advance"
	advanceerrors "go-advance/internal/advance/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  *apiMeta        `json:"meta"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeAdvanceService struct {
	requestFn                 func(ctx context.Context, actorID string, req advance.CreateAdvanceRequest) (advance.AdvanceResponse, error)
	getAllFn                  func(ctx context.Context, employeeID, status string, limit, offset int) ([]advance.AdvanceResponse, int64, error)
	getByIDFn                 func(ctx context.Context, id string) (advance.AdvanceResponse, error)
	getRepaymentsFn           func(ctx context.Context, id string) ([]advance.RepaymentEntryResponse, error)
	approveFn                 func(ctx context.Context, actorID, id string) (advance.AdvanceResponse, error)
	rejectFn                  func(ctx context.Context, actorID, id, rejectionReason string) (advance.AdvanceResponse, error)
	updateFn                  func(ctx context.Context, actorID, id string, req advance.UpdateAdvanceRequest) (advance.AdvanceResponse, error)
	deleteFn                  func(ctx context.Context, actorID, id string) error
	recordRepaymentFn         func(ctx context.Context, actorID, employeeID string, req advance.RecordRepaymentRequest) (advance.RepaymentResult, error)
	deleteRepaymentFn         func(ctx context.Context, actorID, employeeID, entryID string) error
	updateMonthlyDeductionsFn func(ctx context.Context, actorID, employeeID string, req advance.UpdateMonthlyDeductionsRequest) (advance.UpdateMonthlyDeductionsResult, error)
	getOutstandingBalanceFn   func(ctx context.Context, employeeID string) (advance.OutstandingBalanceResponse, error)
	getMonthlyHistoryFn       func(ctx context.Context, employeeID string) (advance.MonthlyHistoryResponse, error)
	getReceiptFn              func(ctx context.Context, employeeID, entryID string) (advance.ReceiptResponse, error)
}

func (f *fakeAdvanceService) Request(ctx context.Context, actorID string, req advance.CreateAdvanceRequest) (advance.AdvanceResponse, error) {
	return f.requestFn(ctx, actorID, req)
}
func (f *fakeAdvanceService) GetAll(ctx context.Context, employeeID, status string, limit, offset int) ([]advance.AdvanceResponse, int64, error) {
	return f.getAllFn(ctx, employeeID, status, limit, offset)
}
func (f *fakeAdvanceService) GetByID(ctx context.Context, id string) (advance.AdvanceResponse, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeAdvanceService) GetRepayments(ctx context.Context, id string) ([]advance.RepaymentEntryResponse, error) {
	return f.getRepaymentsFn(ctx, id)
}
func (f *fakeAdvanceService) Approve(ctx context.Context, actorID, id string) (advance.AdvanceResponse, error) {
	return f.approveFn(ctx, actorID, id)
}
func (f *fakeAdvanceService) Reject(ctx context.Context, actorID, id, rejectionReason string) (advance.AdvanceResponse, error) {
	return f.rejectFn(ctx, actorID, id, rejectionReason)
}
func (f *fakeAdvanceService) Update(ctx context.Context, actorID, id string, req advance.UpdateAdvanceRequest) (advance.AdvanceResponse, error) {
	return f.updateFn(ctx, actorID, id, req)
}
func (f *fakeAdvanceService) Delete(ctx context.Context, actorID, id string) error {
	return f.deleteFn(ctx, actorID, id)
}
func (f *fakeAdvanceService) RecordRepayment(ctx context.Context, actorID, employeeID string, req advance.RecordRepaymentRequest) (advance.RepaymentResult, error) {
	return f.recordRepaymentFn(ctx, actorID, employeeID, req)
}
func (f *fakeAdvanceService) DeleteRepayment(ctx context.Context, actorID, employeeID, entryID string) error {
	return f.deleteRepaymentFn(ctx, actorID, employeeID, entryID)
}
func (f *fakeAdvanceService) UpdateMonthlyDeductions(ctx context.Context, actorID, employeeID string, req advance.UpdateMonthlyDeductionsRequest) (advance.UpdateMonthlyDeductionsResult, error) {
	return f.updateMonthlyDeductionsFn(ctx, actorID, employeeID, req)
}
func (f *fakeAdvanceService) GetOutstandingBalance(ctx context.Context, employeeID string) (advance.OutstandingBalanceResponse, error) {
	return f.getOutstandingBalanceFn(ctx, employeeID)
}
func (f *fakeAdvanceService) GetMonthlyHistory(ctx context.Context, employeeID string) (advance.MonthlyHistoryResponse, error) {
	return f.getMonthlyHistoryFn(ctx, employeeID)
}
func (f *fakeAdvanceService) GetReceipt(ctx context.Context, employeeID, entryID string) (advance.ReceiptResponse, error) {
	return f.getReceiptFn(ctx, employeeID, entryID)
}

func TestAdvanceHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.New().String()
		employeeID := uuid.New().String()

		svc := &fakeAdvanceService{
			requestFn: func(ctx context.Context, aid string, req advance.CreateAdvanceRequest) (advance.AdvanceResponse, error) {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, employeeID, req.EmployeeID)
				assert.Equal(t, "1500.00", req.Amount)
				return advance.AdvanceResponse{
					ID:               uuid.New().String(),
					EmployeeID:       req.EmployeeID,
					ReferenceNumber:  "ADV-000042",
					Amount:           "1500.00",
					RepaidAmount:     "0.00",
					RemainingBalance: "1500.00",
					Status:           advance.StatusPending,
					CreatedBy:        aid,
				}, nil
			},
		}

		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + employeeID + `","amount":"1500.00","monthly_deduction":"250.00","estimated_months":6,"reason":"Medical expenses"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/advances", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id_validated", actorID)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.AdvanceResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, "ADV-000042", got.ReferenceNumber)
		assert.Equal(t, advance.StatusPending, got.Status)
		assert.Equal(t, "1500.00", got.RemainingBalance)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := advance.NewHandler(&fakeAdvanceService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/advances", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Create(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("negative service error", func(t *testing.T) {
		svc := &fakeAdvanceService{
			requestFn: func(ctx context.Context, actorID string, req advance.CreateAdvanceRequest) (advance.AdvanceResponse, error) {
				return advance.AdvanceResponse{}, errors.New("create failed")
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + uuid.New().String() + `","amount":"100.00"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/advances", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id_validated", uuid.New().String())

		h.Create(c)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
		assert.Equal(t, "Internal server error", env.Error.Message)
	})

	t.Run("negative employee not found", func(t *testing.T) {
		svc := &fakeAdvanceService{
			requestFn: func(ctx context.Context, actorID string, req advance.CreateAdvanceRequest) (advance.AdvanceResponse, error) {
				return advance.AdvanceResponse{}, advanceerrors.ErrEmployeeNotFound
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + uuid.New().String() + `","amount":"100.00"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/advances", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("user_id_validated", uuid.New().String())

		h.Create(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
		assert.Equal(t, "employee not found", env.Error.Message)
	})
}

func TestAdvanceHandler_GetAll(t *testing.T) {
	t.Run("success with pagination meta", func(t *testing.T) {
		employeeID := uuid.New().String()
		svc := &fakeAdvanceService{
			getAllFn: func(ctx context.Context, eid, status string, limit, offset int) ([]advance.AdvanceResponse, int64, error) {
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, advance.StatusApproved, status)
				assert.Equal(t, 5, limit)
				assert.Equal(t, 5, offset)
				return []advance.AdvanceResponse{
					{ID: uuid.New().String(), EmployeeID: eid, Status: advance.StatusApproved},
				}, 11, nil
			},
		}

		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet,
			"/advances?page=2&page_size=5&employee_id="+employeeID+"&status=approved", nil)

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		assert.NotNil(t, env.Meta)
		assert.Equal(t, int64(11), env.Meta.Total)
		assert.Equal(t, 3, env.Meta.TotalPages)
		assert.Equal(t, 2, env.Meta.Page)
		var got []advance.AdvanceResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("success defaults invalid paging params", func(t *testing.T) {
		svc := &fakeAdvanceService{
			getAllFn: func(ctx context.Context, eid, status string, limit, offset int) ([]advance.AdvanceResponse, int64, error) {
				assert.Equal(t, 10, limit)
				assert.Equal(t, 0, offset)
				return nil, 0, nil
			},
		}

		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/advances?page=0&page_size=-3", nil)

		h.GetAll(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative service error", func(t *testing.T) {
		svc := &fakeAdvanceService{
			getAllFn: func(ctx context.Context, eid, status string, limit, offset int) ([]advance.AdvanceResponse, int64, error) {
				return nil, 0, errors.New("db error")
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/advances", nil)

		h.GetAll(c)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	})
}

func TestAdvanceHandler_GetById(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		advanceID := uuid.New().String()
		svc := &fakeAdvanceService{
			getByIDFn: func(ctx context.Context, id string) (advance.AdvanceResponse, error) {
				assert.Equal(t, advanceID, id)
				return advance.AdvanceResponse{ID: id, Status: advance.StatusApproved}, nil
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/advances/"+advanceID, nil)
		c.Params = []gin.Param{{Key: "id", Value: advanceID}}

		h.GetById(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.AdvanceResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, advanceID, got.ID)
	})

	t.Run("negative not found", func(t *testing.T) {
		svc := &fakeAdvanceService{
			getByIDFn: func(ctx context.Context, id string) (advance.AdvanceResponse, error) {
				return advance.AdvanceResponse{}, advanceerrors.ErrAdvanceNotFound
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/advances/"+uuid.New().String(), nil)
		c.Params = []gin.Param{{Key: "id", Value: uuid.New().String()}}

		h.GetById(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestAdvanceHandler_ApproveReject(t *testing.T) {
	t.Run("approve success", func(t *testing.T) {
		actorID := uuid.New().String()
		advanceID := uuid.New().String()
		svc := &fakeAdvanceService{
			approveFn: func(ctx context.Context, aid, id string) (advance.AdvanceResponse, error) {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, advanceID, id)
				return advance.AdvanceResponse{ID: id, Status: advance.StatusApproved}, nil
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/advances/"+advanceID+"/approve", nil)
		c.Params = []gin.Param{{Key: "id", Value: advanceID}}
		c.Set("user_id_validated", actorID)

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.AdvanceResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, advance.StatusApproved, got.Status)
	})

	t.Run("approve negative forbidden", func(t *testing.T) {
		svc := &fakeAdvanceService{
			approveFn: func(ctx context.Context, aid, id string) (advance.AdvanceResponse, error) {
				return advance.AdvanceResponse{}, advanceerrors.ErrApprovalNotAllowed
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/advances/"+uuid.New().String()+"/approve", nil)
		c.Params = []gin.Param{{Key: "id", Value: uuid.New().String()}}

		h.Approve(c)
		assert.Equal(t, http.StatusForbidden, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("reject success", func(t *testing.T) {
		actorID := uuid.New().String()
		advanceID := uuid.New().String()
		reason := "budget freeze"
		svc := &fakeAdvanceService{
			rejectFn: func(ctx context.Context, aid, id, rejectionReason string) (advance.AdvanceResponse, error) {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, advanceID, id)
				assert.Equal(t, reason, rejectionReason)
				return advance.AdvanceResponse{ID: id, Status: advance.StatusRejected, RejectionReason: &rejectionReason}, nil
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"rejection_reason":"` + reason + `"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/advances/"+advanceID+"/reject", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: advanceID}}
		c.Set("user_id_validated", actorID)

		h.Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.AdvanceResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, advance.StatusRejected, got.Status)
		assert.NotNil(t, got.RejectionReason)
		assert.Equal(t, reason, *got.RejectionReason)
	})

	t.Run("reject negative missing reason", func(t *testing.T) {
		svc := &fakeAdvanceService{
			rejectFn: func(ctx context.Context, aid, id, rejectionReason string) (advance.AdvanceResponse, error) {
				return advance.AdvanceResponse{}, advanceerrors.ErrRejectionReasonRequired
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/advances/"+uuid.New().String()+"/reject", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: uuid.New().String()}}

		h.Reject(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}

func TestAdvanceHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.New().String()
		advanceID := uuid.New().String()
		svc := &fakeAdvanceService{
			deleteFn: func(ctx context.Context, aid, id string) error {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, advanceID, id)
				return nil
			},
		}

		h := advance.NewHandler(svc)
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("user_id_validated", actorID)
			c.Next()
		})
		r.DELETE("/advances/:id", h.Delete)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/advances/"+advanceID, nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})

	t.Run("negative has repayments returns conflict", func(t *testing.T) {
		svc := &fakeAdvanceService{
			deleteFn: func(ctx context.Context, aid, id string) error {
				return advanceerrors.ErrHasRepayments
			},
		}

		h := advance.NewHandler(svc)
		r := gin.New()
		r.DELETE("/advances/:id", h.Delete)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/advances/"+uuid.New().String(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "CONFLICT", env.Error.Code)
		assert.Equal(t, "this advance has repayments recorded against it and cannot be deleted", env.Error.Message)
	})
}

func TestAdvanceHandler_RecordRepayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.New().String()
		employeeID := uuid.New().String()
		svc := &fakeAdvanceService{
			recordRepaymentFn: func(ctx context.Context, aid, eid string, req advance.RecordRepaymentRequest) (advance.RepaymentResult, error) {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, "25.00", req.Amount)
				return advance.RepaymentResult{
					TotalPaid: "25.00",
					Allocations: []advance.AllocationSlice{
						{AdvanceID: uuid.New().String(), Applied: "10.00", Status: advance.StatusFullyRepaid},
						{AdvanceID: uuid.New().String(), Applied: "15.00", Status: advance.StatusPartiallyRepaid},
					},
				}, nil
			},
		}

		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"amount":"25.00","payment_date":"2026-08-15","notes":"payroll deduction"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/employees/"+employeeID+"/repayments", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "employeeId", Value: employeeID}}
		c.Set("user_id_validated", actorID)

		h.RecordRepayment(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.RepaymentResult
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, "25.00", got.TotalPaid)
		assert.Len(t, got.Allocations, 2)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := advance.NewHandler(&fakeAdvanceService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/employees/"+uuid.New().String()+"/repayments", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.RecordRepayment(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("negative missing payment date", func(t *testing.T) {
		h := advance.NewHandler(&fakeAdvanceService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/employees/"+uuid.New().String()+"/repayments", strings.NewReader(`{"amount":"10.00"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.RecordRepayment(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Equal(t, "Input tidak valid", env.Error.Message)
	})

	t.Run("negative exceeds balance returns unprocessable", func(t *testing.T) {
		svc := &fakeAdvanceService{
			recordRepaymentFn: func(ctx context.Context, aid, eid string, req advance.RecordRepaymentRequest) (advance.RepaymentResult, error) {
				return advance.RepaymentResult{}, advanceerrors.ErrAmountExceedsBalance
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"amount":"9999.00","payment_date":"2026-08-15"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/employees/"+uuid.New().String()+"/repayments", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.RecordRepayment(c)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("negative no active advances returns unprocessable", func(t *testing.T) {
		svc := &fakeAdvanceService{
			recordRepaymentFn: func(ctx context.Context, aid, eid string, req advance.RecordRepaymentRequest) (advance.RepaymentResult, error) {
				return advance.RepaymentResult{}, advanceerrors.ErrNoActiveAdvances
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"amount":"10.00","payment_date":"2026-08-15"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/employees/"+uuid.New().String()+"/repayments", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.RecordRepayment(c)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
	})
}

func TestAdvanceHandler_DeleteRepayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.New().String()
		employeeID := uuid.New().String()
		entryID := uuid.New().String()
		svc := &fakeAdvanceService{
			deleteRepaymentFn: func(ctx context.Context, aid, eid, entry string) error {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, entryID, entry)
				return nil
			},
		}

		h := advance.NewHandler(svc)
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("user_id_validated", actorID)
			c.Next()
		})
		r.DELETE("/employees/:employeeId/repayments/:entryId", h.DeleteRepayment)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/employees/"+employeeID+"/repayments/"+entryID, nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
	})

	t.Run("negative ownership mismatch", func(t *testing.T) {
		svc := &fakeAdvanceService{
			deleteRepaymentFn: func(ctx context.Context, aid, eid, entry string) error {
				return advanceerrors.ErrOwnershipMismatch
			},
		}

		h := advance.NewHandler(svc)
		r := gin.New()
		r.DELETE("/employees/:employeeId/repayments/:entryId", h.DeleteRepayment)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete,
			"/employees/"+uuid.New().String()+"/repayments/"+uuid.New().String(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})
}

func TestAdvanceHandler_UpdateMonthlyDeductions(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.New().String()
		employeeID := uuid.New().String()
		svc := &fakeAdvanceService{
			updateMonthlyDeductionsFn: func(ctx context.Context, aid, eid string, req advance.UpdateMonthlyDeductionsRequest) (advance.UpdateMonthlyDeductionsResult, error) {
				assert.Equal(t, actorID, aid)
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, "150.00", req.MonthlyDeduction)
				return advance.UpdateMonthlyDeductionsResult{
					EmployeeID:       eid,
					MonthlyDeduction: "150.00",
					UpdatedCount:     2,
				}, nil
			},
		}

		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"monthly_deduction":"150.00"}`
		c.Request = httptest.NewRequest(http.MethodPut, "/employees/"+employeeID+"/monthly-deduction", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "employeeId", Value: employeeID}}
		c.Set("user_id_validated", actorID)

		h.UpdateMonthlyDeductions(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.UpdateMonthlyDeductionsResult
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), got.UpdatedCount)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := advance.NewHandler(&fakeAdvanceService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/employees/"+uuid.New().String()+"/monthly-deduction", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.UpdateMonthlyDeductions(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestAdvanceHandler_GetOutstandingBalance(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		employeeID := uuid.New().String()
		svc := &fakeAdvanceService{
			getOutstandingBalanceFn: func(ctx context.Context, eid string) (advance.OutstandingBalanceResponse, error) {
				assert.Equal(t, employeeID, eid)
				return advance.OutstandingBalanceResponse{
					EmployeeID:            eid,
					TotalRemainingBalance: "260.00",
					TotalMonthlyDeduction: "75.00",
				}, nil
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/employees/"+employeeID+"/balance", nil)
		c.Params = []gin.Param{{Key: "employeeId", Value: employeeID}}

		h.GetOutstandingBalance(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.OutstandingBalanceResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, "260.00", got.TotalRemainingBalance)
		assert.Equal(t, "75.00", got.TotalMonthlyDeduction)
	})

	t.Run("negative invalid employee id", func(t *testing.T) {
		svc := &fakeAdvanceService{
			getOutstandingBalanceFn: func(ctx context.Context, eid string) (advance.OutstandingBalanceResponse, error) {
				return advance.OutstandingBalanceResponse{}, advanceerrors.ErrInvalidEmployeeID
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/employees/abc/balance", nil)
		c.Params = []gin.Param{{Key: "employeeId", Value: "abc"}}

		h.GetOutstandingBalance(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}

func TestAdvanceHandler_GetMonthlyHistory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		employeeID := uuid.New().String()
		svc := &fakeAdvanceService{
			getMonthlyHistoryFn: func(ctx context.Context, eid string) (advance.MonthlyHistoryResponse, error) {
				assert.Equal(t, employeeID, eid)
				return advance.MonthlyHistoryResponse{
					EmployeeID: eid,
					Months: []advance.MonthlyHistoryGroup{
						{Month: "2026-08", Total: "150.00"},
						{Month: "2026-07", Total: "75.00"},
					},
				}, nil
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/employees/"+employeeID+"/repayments/monthly", nil)
		c.Params = []gin.Param{{Key: "employeeId", Value: employeeID}}

		h.GetMonthlyHistory(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.MonthlyHistoryResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Len(t, got.Months, 2)
		assert.Equal(t, "2026-08", got.Months[0].Month)
	})
}

func TestAdvanceHandler_GetReceipt(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		employeeID := uuid.New().String()
		entryID := uuid.New().String()
		svc := &fakeAdvanceService{
			getReceiptFn: func(ctx context.Context, eid, entry string) (advance.ReceiptResponse, error) {
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, entryID, entry)
				return advance.ReceiptResponse{
					Entry:        advance.RepaymentEntryResponse{ID: entry, Amount: "40.00"},
					EmployeeName: "Siti Rahma",
				}, nil
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/employees/"+employeeID+"/receipts/"+entryID, nil)
		c.Params = []gin.Param{
			{Key: "employeeId", Value: employeeID},
			{Key: "entryId", Value: entryID},
		}

		h.GetReceipt(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got advance.ReceiptResponse
		err := json.Unmarshal(env.Data, &got)
		assert.NoError(t, err)
		assert.Equal(t, "Siti Rahma", got.EmployeeName)
		assert.Equal(t, "40.00", got.Entry.Amount)
	})

	t.Run("negative repayment not found", func(t *testing.T) {
		svc := &fakeAdvanceService{
			getReceiptFn: func(ctx context.Context, eid, entry string) (advance.ReceiptResponse, error) {
				return advance.ReceiptResponse{}, advanceerrors.ErrRepaymentNotFound
			},
		}
		h := advance.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet,
			"/employees/"+uuid.New().String()+"/receipts/"+uuid.New().String(), nil)

		h.GetReceipt(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}
