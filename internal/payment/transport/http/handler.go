// Package http exposes the payment reliability core over a small
// chi-routed HTTP API: create a payment, process it, and look it up.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/internal/payment/coordinator"
	"github.com/bugielektrik/orchestra-pay/internal/payment/repository"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
	"github.com/bugielektrik/orchestra-pay/pkg/httputil"
	pkgmiddleware "github.com/bugielektrik/orchestra-pay/pkg/middleware"
	"github.com/bugielektrik/orchestra-pay/pkg/server/response"
	pkgvalidator "github.com/bugielektrik/orchestra-pay/pkg/validator"
)

// Handler wires the Coordinator into chi routes.
type Handler struct {
	coordinator *coordinator.Coordinator
	repo        repository.Repository
	validate    *pkgvalidator.Validator
	log         *zap.Logger
}

// New constructs a Handler.
func New(c *coordinator.Coordinator, repo repository.Repository, log *zap.Logger) *Handler {
	return &Handler{
		coordinator: c,
		repo:        repo,
		validate:    pkgvalidator.New(),
		log:         log,
	}
}

// Routes mounts the handler's endpoints onto r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/payments", h.createPayment)
	r.Get("/payments/{id}", h.getPayment)
	r.Post("/payments/{id}/process", h.processPayment)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var dto createPaymentDTO
	if err := httputil.DecodeJSON(r, &dto); err != nil {
		pkgmiddleware.RespondError(w, r, err)
		return
	}
	if err := h.validate.Validate(dto); err != nil {
		pkgmiddleware.RespondError(w, r, errors.ErrValidation.Wrap(err))
		return
	}

	payment, err := h.coordinator.CreatePayment(r.Context(), dto.toDomain())
	if err != nil {
		pkgmiddleware.RespondError(w, r, err)
		return
	}

	response.Created(w, r, payment)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetURLParam(r, "id")
	if err != nil {
		pkgmiddleware.RespondError(w, r, err)
		return
	}

	payment, found, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		pkgmiddleware.RespondError(w, r, err)
		return
	}
	if !found {
		pkgmiddleware.RespondError(w, r, errors.ErrPaymentNotFound.WithDetails("id", id))
		return
	}

	response.OK(w, r, payment)
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.GetURLParam(r, "id")
	if err != nil {
		pkgmiddleware.RespondError(w, r, err)
		return
	}

	var dto processPaymentDTO
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &dto); err != nil {
			pkgmiddleware.RespondError(w, r, err)
			return
		}
	}

	payment, err := h.coordinator.ProcessPayment(r.Context(), dto.toDomain(id))
	if err != nil {
		pkgmiddleware.RespondError(w, r, err)
		return
	}

	response.OK(w, r, payment)
}

