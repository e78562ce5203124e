package controllers

import (
	"net/http"

	"github.com/mountemart/backend/api/responses"
	"github.com/mountemart/backend/api/validators"
	dropsvc "github.com/mountemart/backend/internal/droplocations"
	"github.com/mountemart/backend/pkg/logger"
)

type dropLocationRequest struct {
	Label    string `json:"label"`
	District string `json:"district" validate:"required"`
	City     string `json:"city" validate:"required"`
	Street   string `json:"street" validate:"required"`
	Phone    string `json:"phone"`
}

// DropLocationCreate saves a new delivery address for the caller.
func DropLocationCreate(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body dropLocationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loc, err := svc.Create(r.Context(), dropsvc.CreateInput{
			UserID:   userID,
			Label:    body.Label,
			District: body.District,
			City:     body.City,
			Street:   body.Street,
			Phone:    body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newDropLocationResponse(loc))
	}
}

// DropLocationUpdate edits an address the caller owns.
func DropLocationUpdate(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locID, err := uuidParam(r, "dropLocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body dropLocationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loc, err := svc.Update(r.Context(), userID, locID, dropsvc.UpdateInput{
			Label:    body.Label,
			District: body.District,
			City:     body.City,
			Street:   body.Street,
			Phone:    body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDropLocationResponse(loc))
	}
}

// DropLocationDelete removes a saved address.
func DropLocationDelete(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locID, err := uuidParam(r, "dropLocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), userID, locID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DropLocationList returns the caller's saved addresses.
func DropLocationList(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locations, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]dropLocationResponse, len(locations))
		for i := range locations {
			out[i] = newDropLocationResponse(&locations[i])
		}
		responses.WriteSuccess(w, out)
	}
}
