package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/internal/http/response"
	"github.com/RickGCartmanland/my-free-table/internal/service"
	"github.com/RickGCartmanland/my-free-table/pkg/auth"
	"github.com/RickGCartmanland/my-free-table/pkg/config"
	"github.com/RickGCartmanland/my-free-table/pkg/logger"
)

type claimsKey struct{}

type Handlers struct {
	bookings    service.BookingService
	restaurants service.RestaurantService
	config      *config.Config
}

func New(bookings service.BookingService, restaurants service.RestaurantService, cfg *config.Config) *Handlers {
	return &Handlers{
		bookings:    bookings,
		restaurants: restaurants,
		config:      cfg,
	}
}

// RequireJWT gates a route subtree behind a bearer token with the given role.
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != "admin" {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service-layer errors onto the HTTP taxonomy:
// business rules 400, conflicts 409, not-found 404, everything else a logged
// generic 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ruleErr *domain.RuleError
	var conflictErr *domain.ConflictError
	var bulkNotFound *domain.BulkNotFoundError
	var bulkRule *domain.BulkRuleError

	switch {
	case errors.Is(err, domain.ErrRestaurantNotFound),
		errors.Is(err, domain.ErrTableNotFound),
		errors.Is(err, domain.ErrBookingNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &ruleErr):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, ruleErr.Message, response.CodeBusinessRule, ruleErr.Code)
	case errors.As(err, &conflictErr):
		response.WriteErrorWithDetails(w, http.StatusConflict, conflictErr.Message, response.CodeConflict, conflictErr.Code)
	case errors.As(err, &bulkNotFound):
		response.WriteBulkError(w, http.StatusNotFound, "some bookings were not found", response.CodeNotFound, bulkNotFound.BookingIDs)
	case errors.As(err, &bulkRule):
		response.WriteBulkError(w, http.StatusBadRequest, bulkRule.Message, response.CodeBusinessRule, bulkRule.BookingIDs)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "internal error")
	}
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= domain.MaxSearchLimit {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
