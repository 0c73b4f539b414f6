package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const maxFieldLength = 255

type shippingRequest struct {
	FirstName   string `json:"first_name" validate:"max=255"`
	LastName    string `json:"last_name" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=32"`
	AddressText string `json:"address_text" validate:"max=500"`
	City        string `json:"city" validate:"max=255"`
	Area        string `json:"area" validate:"max=255"`
	Notes       string `json:"notes" validate:"max=1000"`
}

func (r shippingRequest) address() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName:   validators.SanitizeString(r.FirstName, maxFieldLength),
		LastName:    validators.SanitizeString(r.LastName, maxFieldLength),
		Email:       validators.SanitizeString(r.Email, maxFieldLength),
		Phone:       validators.SanitizeString(r.Phone, 32),
		AddressText: validators.SanitizeString(r.AddressText, 500),
		City:        validators.SanitizeString(r.City, maxFieldLength),
		Area:        validators.SanitizeString(r.Area, maxFieldLength),
		Notes:       validators.SanitizeString(r.Notes, 1000),
	}
}

type deliveryRequest struct {
	Option string `json:"option" validate:"required"`
}

type paymentRequest struct {
	Method        string `json:"method"`
	TermsAccepted bool   `json:"terms_accepted"`
}

type couponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// StartCheckout opens the wizard or resumes the shopper's open session.
func StartCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Start(r.Context(), userID, middleware.LanguageFromContext(r.Context()))
		writeView(w, r, logg, view, err)
	}
}

func GetCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Get(r.Context(), userID)
		writeView(w, r, logg, view, err)
	}
}

// AbandonCheckout discards the session. The cart is untouched.
func AbandonCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Abandon(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UpdateShipping(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		var payload shippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateShipping(r.Context(), userID, payload.address())
		writeView(w, r, logg, view, err)
	}
}

func SelectDelivery(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		var payload deliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		option, err := enums.ParseDeliveryOption(strings.TrimSpace(payload.Option))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery option").
				WithDetails(map[string]string{"option": "is invalid"}))
			return
		}
		view, err := svc.SelectDelivery(r.Context(), userID, option)
		writeView(w, r, logg, view, err)
	}
}

func SelectPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel := checkoutsvc.PaymentSelection{TermsAccepted: payload.TermsAccepted}
		if raw := strings.TrimSpace(payload.Method); raw != "" {
			method, err := enums.ParsePaymentMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
					WithDetails(map[string]string{"method": "is invalid"}))
				return
			}
			sel.Method = method
		}
		view, err := svc.SelectPayment(r.Context(), userID, sel)
		writeView(w, r, logg, view, err)
	}
}

func AdvanceCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Advance(r.Context(), userID)
		writeView(w, r, logg, view, err)
	}
}

func RetreatCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.Retreat(r.Context(), userID)
		writeView(w, r, logg, view, err)
	}
}

// JumpToStep moves back to an already completed step named in the path.
func JumpToStep(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		step, err := enums.ParseCheckoutStep(strings.TrimSpace(chi.URLParam(r, "step")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout step").
				WithDetails(map[string]string{"step": "is invalid"}))
			return
		}
		view, err := svc.JumpTo(r.Context(), userID, step)
		writeView(w, r, logg, view, err)
	}
}

func ApplyCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.ApplyCoupon(r.Context(), userID, payload.Code)
		writeView(w, r, logg, view, err)
	}
}

func RemoveCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.RemoveCoupon(r.Context(), userID)
		writeView(w, r, logg, view, err)
	}
}

// PlaceOrder commits the session. A repeated call after success replays the confirmation.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.PlaceOrder(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request, svc checkoutsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
		return uuid.Nil, false
	}
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
		return uuid.Nil, false
	}
	return userID, true
}

func writeView(w http.ResponseWriter, r *http.Request, logg *logger.Logger, view *checkoutsvc.View, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}
