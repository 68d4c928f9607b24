package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RickGCartmanland/my-free-table/internal/http/response"
)

// ListRestaurants handles GET /restaurants
func (h *Handlers) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	restaurants, err := h.restaurants.List(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, restaurants)
}

// GetRestaurant handles GET /restaurants/{id}, returning opening hours and
// table inventory alongside the restaurant itself.
func (h *Handlers) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid restaurant ID")
		return
	}

	restaurant, err := h.restaurants.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

// GetDayAvailability handles GET /restaurants/{id}/availability?date=YYYY-MM-DD
func (h *Handlers) GetDayAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid restaurant ID")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	availability, err := h.restaurants.DayAvailability(r.Context(), id, date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, availability)
}
