package cashflow

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/ledger"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
)

// Handler wires the cash flow read endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fiscal-years/{fiscalYearID}/cash-flow", h.statement)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	fiscalYearID, err := strconv.ParseInt(chi.URLParam(r, "fiscalYearID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "fiscal year id must be numeric")
		return
	}
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")

	var st Statement
	if fromRaw != "" && toRaw != "" {
		from, err := time.Parse("2006-01-02", fromRaw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from must be YYYY-MM-DD")
			return
		}
		to, err := time.Parse("2006-01-02", toRaw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "to must be YYYY-MM-DD")
			return
		}
		st, err = h.service.Calculate(r.Context(), fiscalYearID, from, to)
		if err != nil {
			h.respondErr(w, err)
			return
		}
	} else {
		st, err = h.service.ForFiscalYear(r.Context(), fiscalYearID)
		if err != nil {
			h.respondErr(w, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var fault *ledger.IntegrityError
	switch {
	case errors.As(err, &fault):
		h.logger.Error("cash flow integrity fault", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Integrity Fault", fault.Error())
	case errors.Is(err, fiscalyear.ErrNotFound), errors.Is(err, ErrStatementNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("cash flow handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
