package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/api/responses"
	"github.com/mountemart/backend/api/validators"
	shippingsvc "github.com/mountemart/backend/internal/shipping"
	"github.com/mountemart/backend/pkg/logger"
)

type zoneRequest struct {
	District string `json:"district" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// AdminAddFreeDeliveryZone whitelists a location for free delivery of
// eligible products.
func AdminAddFreeDeliveryZone(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body zoneRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AddFreeDeliveryZone(r.Context(), body.District, body.City); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

type standardRateRequest struct {
	District    string          `json:"district" validate:"required"`
	City        string          `json:"city" validate:"required"`
	BaseCharge  decimal.Decimal `json:"base_charge" validate:"required"`
	PerKGCharge decimal.Decimal `json:"per_kg_charge" validate:"required"`
}

// AdminSetStandardRate upserts the standard tier rate for a location.
func AdminSetStandardRate(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body standardRateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetStandardRate(r.Context(), body.District, body.City, body.BaseCharge, body.PerKGCharge); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "saved"})
	}
}

type expressZoneRequest struct {
	District string `json:"district" validate:"required"`
}

// AdminAddExpressZone opens a district for the express tier.
func AdminAddExpressZone(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body expressZoneRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AddExpressZone(r.Context(), body.District); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

type expressChargeRequest struct {
	City   string          `json:"city" validate:"required"`
	Charge decimal.Decimal `json:"charge" validate:"required"`
}

// AdminSetExpressCharge upserts the flat express fee for a city.
func AdminSetExpressCharge(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body expressChargeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetExpressCharge(r.Context(), body.City, body.Charge); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "saved"})
	}
}

type forbiddenDeliveryRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	District  string    `json:"district" validate:"required"`
}

// AdminAddForbiddenDelivery bans a product from delivery in a district.
func AdminAddForbiddenDelivery(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body forbiddenDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AddForbiddenDelivery(r.Context(), body.ProductID, body.District); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

// AdminListFreeDeliveryZones lists the free delivery whitelist.
func AdminListFreeDeliveryZones(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zones, err := svc.ListFreeDeliveryZones(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zones)
	}
}

// AdminListStandardRates lists configured standard tier rates.
func AdminListStandardRates(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rates, err := svc.ListStandardRates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rates)
	}
}

// AdminListExpressZones lists districts where express operates.
func AdminListExpressZones(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zones, err := svc.ListExpressZones(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zones)
	}
}

// AdminListExpressCharges lists per-city express fees.
func AdminListExpressCharges(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		charges, err := svc.ListExpressCharges(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, charges)
	}
}

// AdminListForbiddenDeliveries lists per-product district bans.
func AdminListForbiddenDeliveries(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bans, err := svc.ListForbiddenDeliveries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bans)
	}
}
