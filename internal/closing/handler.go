package closing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// Handler wires the closing endpoint.
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
	r.Post("/fiscal-years/{fiscalYearID}/close", h.close)
}

type closeResponse struct {
	FiscalYear fiscalyear.FiscalYear `json:"fiscal_year"`
	Split      SplitResult           `json:"split"`
	EntryID    int64                 `json:"closing_entry_id,omitempty"`
}

// closeRequest optionally overrides the configured statutory percentages
// for this close only. Empty body uses the configured split.
type closeRequest struct {
	NazerPct   string `json:"nazer_pct"`
	CorpusPct  string `json:"corpus_pct"`
	CharityPct string `json:"charity_pct"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "fiscalYearID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "fiscal year id must be numeric")
		return
	}
	strategy, err := h.overrideStrategy(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	result, err := h.service.CloseWithStrategy(r.Context(), id, actor.ID, strategy)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, closeResponse{
		FiscalYear: result.FiscalYear,
		Split:      result.Split,
		EntryID:    result.Entry.ID,
	})
}

// overrideStrategy returns nil when the request carries no body, which
// falls back to the service's configured split.
func (h *Handler) overrideStrategy(r *http.Request) (SplitStrategy, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, nil
	}
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: malformed body", ErrPercentagesInvalid)
	}
	cfg := SplitConfig{}
	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{req.NazerPct, &cfg.NazerPct},
		{req.CorpusPct, &cfg.CorpusPct},
		{req.CharityPct, &cfg.CharityPct},
	} {
		if field.raw == "" {
			continue
		}
		value, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal percentage", ErrPercentagesInvalid, field.raw)
		}
		*field.dest = value
	}
	strategy, err := NewPercentSplitStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return strategy, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fiscalyear.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyClosed), errors.Is(err, ErrNotActive), errors.Is(err, ErrOpenDraftsExist):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrPercentagesInvalid):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("closing handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
