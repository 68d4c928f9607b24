package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/internal/http/response"
)

// CreateBooking handles POST /bookings
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if req.RestaurantID <= 0 || req.TableID <= 0 {
		response.BadRequest(w, "restaurant_id and table_id are required")
		return
	}
	if req.BookingDate == "" || req.BookingTime == "" {
		response.BadRequest(w, "booking_date and booking_time are required")
		return
	}

	booking, err := h.bookings.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /bookings/{id}
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	booking, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// UpdateBooking handles PATCH /bookings/{id}
func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var patch domain.BookingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	updated, err := h.bookings.Update(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// CancelBooking handles DELETE /bookings/{id}
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	cancelled, err := h.bookings.Cancel(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cancelled)
}

type statusChangeReq struct {
	Status string `json:"status"`
}

// ChangeBookingStatus handles POST /bookings/{id}/status
func (h *Handlers) ChangeBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req statusChangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	status, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		response.BadRequest(w, "Invalid status value")
		return
	}

	updated, err := h.bookings.ChangeStatus(r.Context(), id, status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
