package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/awqaf-platform/waqf-ledger/internal/platform/httpx"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

// Handler wires HTTP endpoints for the account registry.
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
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/tree", h.tree)
		r.Post("/", h.create)
		r.Post("/{id}/deactivate", h.deactivate)
	})
}

type createAccountRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Nature   string `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT"`
	ParentID *int64 `json:"parent_id"`
	IsHeader bool   `json:"is_header"`
	CashFlow string `json:"cash_flow_category" validate:"omitempty,oneof=CASH OPERATING INVESTING FINANCING NONE"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	nature := Nature(req.Nature)
	if nature == "" {
		nature = NaturalNature(AccountType(req.Type))
	}
	account, err := h.service.Create(r.Context(), CreateAccountInput{
		Code:     req.Code,
		Name:     req.Name,
		Type:     AccountType(req.Type),
		Nature:   nature,
		ParentID: req.ParentID,
		IsHeader: req.IsHeader,
		CashFlow: CashFlowCategory(req.CashFlow),
		ActorID:  actor.ID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrActorRequired)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	account, err := h.service.Deactivate(r.Context(), id, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate Code", err.Error())
	case errors.Is(err, ErrInvalidParent):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parent", err.Error())
	case errors.Is(err, ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("accounts handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
