package service

import (
	"context"
	"errors"
	"testing"

	slotserrors "activerse/internal/slots/errors"
	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/logger"
	"activerse/pkg/model"
)

type mockSlotRepository struct {
	GetOrCreateFunc    func(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error)
	AdjustFunc         func(ctx context.Context, date string, slotTime string, delta int) error
	FindByDateFunc     func(ctx context.Context, date string) ([]*model.TimeSlot, error)
	SetBookedSpotsFunc func(ctx context.Context, date string, slotTime string, spots int) error
}

func (m *mockSlotRepository) GetOrCreate(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error) {
	return m.GetOrCreateFunc(ctx, date, slotTime)
}

func (m *mockSlotRepository) Adjust(ctx context.Context, date string, slotTime string, delta int) error {
	return m.AdjustFunc(ctx, date, slotTime, delta)
}

func (m *mockSlotRepository) FindByDate(ctx context.Context, date string) ([]*model.TimeSlot, error) {
	return m.FindByDateFunc(ctx, date)
}

func (m *mockSlotRepository) SetBookedSpots(ctx context.Context, date string, slotTime string, spots int) error {
	return m.SetBookedSpotsFunc(ctx, date, slotTime, spots)
}

type mockGuestCounter struct {
	SumGuestsBySlotFunc func(ctx context.Context, date string, slotTime string, statuses []string, excludeID string) (int, error)
}

func (m *mockGuestCounter) SumGuestsBySlot(ctx context.Context, date string, slotTime string, statuses []string, excludeID string) (int, error) {
	return m.SumGuestsBySlotFunc(ctx, date, slotTime, statuses, excludeID)
}

func newSlotTestConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
	}
}

func TestAvailability_ReturnsSlotsForDate(t *testing.T) {
	repo := &mockSlotRepository{
		FindByDateFunc: func(ctx context.Context, date string) ([]*model.TimeSlot, error) {
			return []*model.TimeSlot{
				{Date: date, Time: "18:00", AvailableSpots: model.SlotCapacity, BookedSpots: 6},
				{Date: date, Time: "19:00", AvailableSpots: model.SlotCapacity, BookedSpots: 24},
			}, nil
		},
	}

	svc := NewSlotService(repo, &mockGuestCounter{}, newSlotTestConfig())

	slots, err := svc.Availability(context.Background(), "2030-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].RemainingSpots() != 18 {
		t.Errorf("expected 18 remaining at 18:00, got %d", slots[0].RemainingSpots())
	}
	if slots[1].RemainingSpots() != 0 {
		t.Errorf("expected 0 remaining at 19:00, got %d", slots[1].RemainingSpots())
	}
}

func TestAvailability_RejectsMalformedDate(t *testing.T) {
	svc := NewSlotService(&mockSlotRepository{}, &mockGuestCounter{}, newSlotTestConfig())

	for _, date := range []string{"15-06-2030", "2030/06/15", "tomorrow", ""} {
		if _, err := svc.Availability(context.Background(), date); err == nil {
			t.Errorf("expected rejection of %q", date)
		}
	}
}

func TestAvailability_EmptyDateYieldsEmptySlice(t *testing.T) {
	repo := &mockSlotRepository{
		FindByDateFunc: func(ctx context.Context, date string) ([]*model.TimeSlot, error) {
			return nil, nil
		},
	}

	svc := NewSlotService(repo, &mockGuestCounter{}, newSlotTestConfig())

	slots, err := svc.Availability(context.Background(), "2030-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestReconcile_OverwritesDriftedLedger(t *testing.T) {
	var setSpots int
	var summedStatuses []string
	repo := &mockSlotRepository{
		SetBookedSpotsFunc: func(ctx context.Context, date string, slotTime string, spots int) error {
			setSpots = spots
			return nil
		},
		GetOrCreateFunc: func(ctx context.Context, date string, slotTime string) (*model.TimeSlot, error) {
			return &model.TimeSlot{Date: date, Time: slotTime, AvailableSpots: model.SlotCapacity, BookedSpots: setSpots}, nil
		},
	}
	counter := &mockGuestCounter{
		SumGuestsBySlotFunc: func(ctx context.Context, date string, slotTime string, statuses []string, excludeID string) (int, error) {
			summedStatuses = statuses
			return 17, nil
		},
	}

	svc := NewSlotService(repo, counter, newSlotTestConfig())

	slot, err := svc.Reconcile(context.Background(), "2030-06-15", "19:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setSpots != 17 {
		t.Errorf("expected ledger overwritten to 17, got %d", setSpots)
	}
	if slot.BookedSpots != 17 {
		t.Errorf("expected 17 booked spots in the result, got %d", slot.BookedSpots)
	}
	if len(summedStatuses) != 2 {
		t.Fatalf("expected pending and confirmed to be summed, got %v", summedStatuses)
	}
}

func TestReconcile_RejectsMalformedInput(t *testing.T) {
	svc := NewSlotService(&mockSlotRepository{}, &mockGuestCounter{}, newSlotTestConfig())

	if _, err := svc.Reconcile(context.Background(), "bad-date", "19:00"); err == nil {
		t.Error("expected rejection of malformed date")
	}
	if _, err := svc.Reconcile(context.Background(), "2030-06-15", "7pm"); err == nil {
		t.Error("expected rejection of malformed time")
	}
}

func TestReconcile_MissingSlotIsNotFound(t *testing.T) {
	repo := &mockSlotRepository{
		SetBookedSpotsFunc: func(ctx context.Context, date string, slotTime string, spots int) error {
			return slotserrors.ErrNotFound
		},
	}
	counter := &mockGuestCounter{
		SumGuestsBySlotFunc: func(ctx context.Context, date string, slotTime string, statuses []string, excludeID string) (int, error) {
			return 0, nil
		},
	}

	svc := NewSlotService(repo, counter, newSlotTestConfig())

	_, err := svc.Reconcile(context.Background(), "2030-06-15", "19:00")
	if err == nil {
		t.Fatal("expected an error")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 404 {
		t.Errorf("expected 404, got %v", err)
	}
}
