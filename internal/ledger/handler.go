package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for ledger read models.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.trialBalance)
	r.Get("/reports/overview", h.overview)
	r.Get("/accounts/{id}/ledger", h.generalLedger)
}

type overviewResponse struct {
	AsOf         time.Time    `json:"as_of"`
	TrialBalance TrialBalance `json:"trial_balance"`
	Integrity    string       `json:"integrity"`
}

// overview assembles the reporting snapshot: the trial balance and the
// global integrity verdict, fetched concurrently.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	asOf := h.now()
	resp := overviewResponse{AsOf: asOf, Integrity: "ok"}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		report, err := h.service.TrialBalance(ctx, asOf)
		if err != nil {
			return err
		}
		resp.TrialBalance = report
		return nil
	})
	g.Go(func() error {
		if err := h.service.CheckIntegrity(ctx); err != nil {
			var fault *IntegrityError
			if errors.As(err, &fault) {
				resp.Integrity = fault.Error()
				return nil
			}
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf := h.now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	report, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) generalLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	from, err := optionalDate(r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from must be YYYY-MM-DD")
		return
	}
	to, err := optionalDate(r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "to must be YYYY-MM-DD")
		return
	}
	lines, err := h.service.GeneralLedger(r.Context(), accountID, from, to)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var fault *IntegrityError
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &fault):
		h.logger.Error("ledger handler integrity fault", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Integrity Fault", fault.Error())
	default:
		h.logger.Error("ledger handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
