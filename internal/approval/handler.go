package approval

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/awqaf-platform/waqf-ledger/internal/journal"
	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// Handler wires HTTP endpoints for the approval workflow.
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
	r.Post("/journal-entries/{entryID}/approvals", h.submit)
	r.Get("/journal-entries/{entryID}/approvals", h.history)
	r.Post("/approvals/{id}/approve", h.approve)
	r.Post("/approvals/{id}/reject", h.reject)
}

type decisionRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	a, err := h.service.Submit(r.Context(), entryID, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r, "entryID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	approvals, err := h.service.History(r.Context(), entryID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, approvals)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, approvalID, actorID int64, notes string) (Approval, error)) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req decisionRequest
	_ = httpx.DecodeJSON(r, &req)
	a, err := decide(r.Context(), id, actor.ID, req.Notes)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be numeric")
	}
	return id, nil
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, journal.ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrPendingExists), errors.Is(err, ErrNotPending), errors.Is(err, ErrEntryNotPosted),
		errors.Is(err, journal.ErrInvalidStatus), errors.Is(err, journal.ErrFiscalYearClosed):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error("approval handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
