package payments

import (
	"net/http"

	apperrors "searchsync/internal/errors"
	"searchsync/internal/json"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.Read(r, &req); err != nil {
		apperrors.RespondError(w, r, apperrors.New(apperrors.ErrInvalidInput, "Request body is not valid JSON", err))
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		apperrors.RespondError(w, r, err)
		return
	}

	apperrors.RespondJSON(w, http.StatusCreated, order)
}
