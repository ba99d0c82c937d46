package service

import (
	"context"
	"errors"
	"time"

	slotserrors "activerse/internal/slots/errors"
	"activerse/internal/slots/repository"
	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/model"
)

// GuestCounter reports the guest sum over capacity-occupying bookings for a
// slot. The booking repository implements it; the indirection keeps the
// ledger package from importing the booking package.
type GuestCounter interface {
	SumGuestsBySlot(ctx context.Context, date string, slotTime string, statuses []string, excludeID string) (int, error)
}

type SlotService interface {
	Availability(ctx context.Context, date string) ([]*model.TimeSlot, error)
	Reconcile(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error)
}

type slotService struct {
	repo    repository.SlotRepository
	counter GuestCounter
	cfg     *config.Config
}

func NewSlotService(repo repository.SlotRepository, counter GuestCounter, cfg *config.Config) SlotService {
	return &slotService{
		repo:    repo,
		counter: counter,
		cfg:     cfg,
	}
}

func (s *slotService) Availability(ctx context.Context, date string) ([]*model.TimeSlot, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, apperrors.InvalidInput("Invalid date format. Use YYYY-MM-DD.")
	}

	slots, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load availability", "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	if slots == nil {
		slots = []*model.TimeSlot{}
	}
	return slots, nil
}

// Reconcile recomputes booked_spots from the authoritative booking set and
// overwrites the ledger row. Recovery operation for drifted counters.
func (s *slotService) Reconcile(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, apperrors.InvalidInput("Invalid date format. Use YYYY-MM-DD.")
	}
	if _, err := time.Parse(model.TimeLayout, slotTime); err != nil {
		return nil, apperrors.InvalidInput("Invalid time format. Use HH:MM.")
	}

	sum, err := s.counter.SumGuestsBySlot(ctx, date, slotTime, model.CountedStatuses, "")
	if err != nil {
		s.cfg.Log.Error("Failed to sum guests for reconciliation", "date", date, "time", slotTime, "error", err)
		return nil, apperrors.Internal("Failed to reconcile time slot", err)
	}

	if err := s.repo.SetBookedSpots(ctx, date, slotTime, sum); err != nil {
		if errors.Is(err, slotserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Time slot")
		}
		s.cfg.Log.Error("Failed to overwrite booked spots", "date", date, "time", slotTime, "error", err)
		return nil, apperrors.Internal("Failed to reconcile time slot", err)
	}

	slot, err := s.repo.GetOrCreate(ctx, date, slotTime)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reconciled time slot", err)
	}

	s.cfg.Log.Info("Time slot reconciled", "date", date, "time", slotTime, "booked_spots", sum)
	return slot, nil
}
