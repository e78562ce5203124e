package controllers

import (
	"net/http"

	"github.com/mountemart/backend/api/responses"
	"github.com/mountemart/backend/api/validators"
	rewardsvc "github.com/mountemart/backend/internal/rewards"
	usersvc "github.com/mountemart/backend/internal/users"
	"github.com/mountemart/backend/pkg/logger"
)

// UserProfile returns the caller's account.
func UserProfile(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

type cashbackPreferenceRequest struct {
	Enabled bool `json:"enabled"`
}

// SetCashbackPreference toggles the account-level cashback opt-in.
func SetCashbackPreference(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cashbackPreferenceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetCashbackPreference(r.Context(), userID, body.Enabled); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"enabled": body.Enabled})
	}
}

// RewardBalance returns the caller's coin balance and tier.
func RewardBalance(svc rewardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{
			"silver_coins":  account.SilverCoins,
			"gold_coins":    account.GoldCoins,
			"diamond_coins": account.DiamondCoins,
		})
	}
}
