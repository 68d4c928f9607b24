package service

import (
	"context"
	"fmt"

	"github.com/RickGCartmanland/my-free-table/internal/domain"
	"github.com/RickGCartmanland/my-free-table/internal/repo/postgres"
)

type RestaurantService interface {
	List(ctx context.Context, limit, offset int) ([]domain.Restaurant, error)
	Get(ctx context.Context, id int64) (*domain.Restaurant, error)
	DayAvailability(ctx context.Context, id int64, date string) (*DayAvailability, error)
}

// DayAvailability describes what a restaurant can take on one calendar day.
type DayAvailability struct {
	Date      string              `json:"date"`
	Open      bool                `json:"open"`
	OpenTime  string              `json:"open_time,omitempty"`
	CloseTime string              `json:"close_time,omitempty"`
	Tables    []TableAvailability `json:"tables"`
}

type TableAvailability struct {
	Table       domain.Table `json:"table"`
	BookedTimes []string     `json:"booked_times"`
}

type restaurantService struct {
	restaurantRepo postgres.RestaurantRepository
	bookingRepo    postgres.BookingRepository
}

func NewRestaurantService(restaurantRepo postgres.RestaurantRepository, bookingRepo postgres.BookingRepository) RestaurantService {
	return &restaurantService{restaurantRepo: restaurantRepo, bookingRepo: bookingRepo}
}

func (s *restaurantService) List(ctx context.Context, limit, offset int) ([]domain.Restaurant, error) {
	return s.restaurantRepo.List(ctx, limit, offset)
}

func (s *restaurantService) Get(ctx context.Context, id int64) (*domain.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, domain.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (s *restaurantService) DayAvailability(ctx context.Context, id int64, date string) (*DayAvailability, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, domain.NewRuleError(domain.RuleInvalidInput, "%s", err.Error())
	}

	restaurant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &DayAvailability{Date: date, Tables: []TableAvailability{}}

	hours := restaurant.HoursFor(int(day.Weekday()))
	if hours == nil || hours.IsClosed {
		return out, nil
	}
	out.Open = true
	out.OpenTime = hours.OpenTime
	out.CloseTime = hours.CloseTime

	status := domain.BookingConfirmed
	bookings, _, err := s.bookingRepo.Search(ctx, domain.SearchFilter{
		RestaurantID: id,
		Status:       &status,
		DateFrom:     date,
		DateTo:       date,
		Limit:        domain.MaxSearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}

	bookedByTable := make(map[int64][]string)
	for _, b := range bookings {
		bookedByTable[b.TableID] = append(bookedByTable[b.TableID], b.BookingTime)
	}

	for _, t := range restaurant.Tables {
		if !t.IsActive {
			continue
		}
		booked := bookedByTable[t.ID]
		if booked == nil {
			booked = []string{}
		}
		out.Tables = append(out.Tables, TableAvailability{Table: t, BookedTimes: booked})
	}

	return out, nil
}
