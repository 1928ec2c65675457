package budget

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/ledger"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// Handler wires HTTP endpoints for budgets and variance runs.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/fiscal-years/{fiscalYearID}/budgets", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
	})
	r.Get("/fiscal-years/{fiscalYearID}/budget-variances", h.variances)
}

type createBudgetRequest struct {
	AccountID      int64  `json:"account_id" validate:"required"`
	PeriodType     string `json:"period_type" validate:"required,oneof=MONTH QUARTER YEAR"`
	PeriodNumber   int    `json:"period_number" validate:"required,min=1,max=12"`
	BudgetedAmount string `json:"budgeted_amount" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	fiscalYearID, err := fiscalYearID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req createBudgetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.BudgetedAmount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	b, err := h.service.Create(r.Context(), CreateInput{
		AccountID:      req.AccountID,
		FiscalYearID:   fiscalYearID,
		PeriodType:     PeriodType(req.PeriodType),
		PeriodNumber:   req.PeriodNumber,
		BudgetedAmount: amount,
		ActorID:        actor.ID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := fiscalYearID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	budgets, err := h.service.List(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budgets)
}

func (h *Handler) variances(w http.ResponseWriter, r *http.Request) {
	id, err := fiscalYearID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	budgets, err := h.service.CalculateVariances(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budgets)
}

func fiscalYearID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "fiscalYearID"), 10, 64)
	if err != nil {
		return 0, errors.New("fiscal year id must be numeric")
	}
	return id, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var fault *ledger.IntegrityError
	switch {
	case errors.As(err, &fault):
		h.logger.Error("budget variance integrity fault", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Integrity Fault", fault.Error())
	case errors.Is(err, ErrDuplicateBudget):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrBudgetNotFound), errors.Is(err, fiscalyear.ErrNotFound), errors.Is(err, accounts.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("budget handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
