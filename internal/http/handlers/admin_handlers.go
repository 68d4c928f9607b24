package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/internal/http/response"
)

// SearchBookings handles GET /admin/bookings with optional filters.
func (h *Handlers) SearchBookings(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil || claims.Role != "admin" {
		response.Forbidden(w, "Admin access required")
		return
	}

	limit, offset := parsePagination(r)
	f := domain.SearchFilter{
		CustomerEmail: r.URL.Query().Get("customer_email"),
		DateFrom:      r.URL.Query().Get("date_from"),
		DateTo:        r.URL.Query().Get("date_to"),
		Limit:         limit,
		Offset:        offset,
	}

	if v := r.URL.Query().Get("restaurant_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			response.BadRequest(w, "Invalid restaurant_id parameter")
			return
		}
		f.RestaurantID = id
	}
	if v := r.URL.Query().Get("table_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			response.BadRequest(w, "Invalid table_id parameter")
			return
		}
		f.TableID = id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status, ok := domain.ParseBookingStatus(v)
		if !ok {
			response.BadRequest(w, "Invalid status parameter")
			return
		}
		f.Status = &status
	}

	result, err := h.bookings.Search(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type bulkStatusReq struct {
	BookingIDs []int64 `json:"booking_ids"`
	Status     string  `json:"status"`
}

type bulkCancelReq struct {
	BookingIDs []int64 `json:"booking_ids"`
}

type bulkRes struct {
	Bookings []domain.Booking `json:"bookings"`
	Updated  int              `json:"updated"`
}

// BulkChangeStatus handles POST /admin/bookings/bulk-status. The batch either
// applies in full or not at all.
func (h *Handlers) BulkChangeStatus(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil || claims.Role != "admin" {
		response.Forbidden(w, "Admin access required")
		return
	}

	var req bulkStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	status, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		response.BadRequest(w, "Invalid status value")
		return
	}

	updated, err := h.bookings.BulkChangeStatus(r.Context(), req.BookingIDs, status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkRes{Bookings: updated, Updated: len(updated)})
}

// BulkCancel handles POST /admin/bookings/bulk-cancel.
func (h *Handlers) BulkCancel(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil || claims.Role != "admin" {
		response.Forbidden(w, "Admin access required")
		return
	}

	var req bulkCancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	updated, err := h.bookings.BulkCancel(r.Context(), req.BookingIDs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkRes{Bookings: updated, Updated: len(updated)})
}
