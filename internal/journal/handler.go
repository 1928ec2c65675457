package journal

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// Handler wires HTTP endpoints for the journal engine.
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
	r.Route("/journal-entries", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.createDraft)
		r.Get("/{id}", h.get)
		r.Post("/{id}/post", h.post)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type lineRequest struct {
	AccountID   int64  `json:"account_id" validate:"required"`
	Debit       string `json:"debit_amount"`
	Credit      string `json:"credit_amount"`
	Description string `json:"description"`
}

type createDraftRequest struct {
	EntryNumber  string        `json:"entry_number" validate:"required"`
	EntryDate    string        `json:"entry_date" validate:"required"`
	Description  string        `json:"description"`
	FiscalYearID int64         `json:"fiscal_year_id" validate:"required"`
	SourceModule string        `json:"source_module"`
	SourceID     string        `json:"source_id"`
	Lines        []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	var req createDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "entry_date must be YYYY-MM-DD")
		return
	}
	sourceID := uuid.Nil
	if req.SourceID != "" {
		sourceID, err = uuid.Parse(req.SourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Source", "source_id must be a UUID")
			return
		}
	}
	input := CreateDraftInput{
		EntryNumber:  req.EntryNumber,
		EntryDate:    entryDate,
		Description:  req.Description,
		FiscalYearID: req.FiscalYearID,
		SourceModule: req.SourceModule,
		SourceID:     sourceID,
		ActorID:      actor.ID,
	}
	for _, line := range req.Lines {
		debit, err := parseAmount(line.Debit)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
			return
		}
		credit, err := parseAmount(line.Credit)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
			return
		}
		input.Lines = append(input.Lines, LineInput{
			AccountID:   line.AccountID,
			Debit:       debit,
			Credit:      credit,
			Description: line.Description,
		})
	}
	entry, err := h.service.CreateDraft(r.Context(), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var fiscalYearID int64
	if raw := r.URL.Query().Get("fiscal_year_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "fiscal_year_id must be numeric")
			return
		}
		fiscalYearID = parsed
	}
	entries, err := h.service.List(r.Context(), fiscalYearID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	id, err := entryID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	entry, err := h.service.Post(r.Context(), id, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	id, err := entryID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req cancelRequest
	_ = httpx.DecodeJSON(r, &req)
	entry, err := h.service.Cancel(r.Context(), id, actor.ID, req.Reason)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func entryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("entry id must be numeric")
	}
	return id, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateEntryNumber), errors.Is(err, ErrSourceAlreadyLinked):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrAlreadyPosted), errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrFiscalYearClosed):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrUnbalanced), errors.Is(err, ErrEmptyEntry), errors.Is(err, ErrInvalidLine), errors.Is(err, ErrInvalidAccountRef):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("journal handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
