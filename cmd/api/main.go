package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/internal/http/handlers"
	"github.com/RickGCartmanland/my-free-table/internal/repo/postgres"
	"github.com/RickGCartmanland/my-free-table/internal/service"
	"github.com/RickGCartmanland/my-free-table/internal/slotlock"
	"github.com/RickGCartmanland/my-free-table/pkg/config"
	"github.com/RickGCartmanland/my-free-table/pkg/database"
	"github.com/RickGCartmanland/my-free-table/pkg/events"
	"github.com/RickGCartmanland/my-free-table/pkg/logger"
	mw "github.com/RickGCartmanland/my-free-table/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	restaurantRepo := postgres.NewRestaurantRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)

	slots := slotlock.NewRedisLocker(redisClient, cfg.Redis.SlotLockTTL)

	bookingService := service.NewBookingService(
		restaurantRepo, customerRepo, bookingRepo, slots, eventBus, domain.RealClock{})
	restaurantService := service.NewRestaurantService(restaurantRepo, bookingRepo)

	h := handlers.New(bookingService, restaurantService, cfg)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("reservations"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", h.ListRestaurants)
		r.Get("/{id}", h.GetRestaurant)
		r.Get("/{id}/availability", h.GetDayAvailability)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/{id}", h.GetBooking)
		r.Patch("/{id}", h.UpdateBooking)
		r.Delete("/{id}", h.CancelBooking)
		r.Post("/{id}/status", h.ChangeBookingStatus)
	})

	r.Route("/admin/bookings", func(r chi.Router) {
		r.Use(h.RequireJWT("admin"))
		r.Get("/", h.SearchBookings)
		r.Post("/bulk-status", h.BulkChangeStatus)
		r.Post("/bulk-cancel", h.BulkCancel)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down reservations service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Reservations service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting reservations service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Reservations service error", "error", err)
		os.Exit(1)
	}
}
