package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "activerse/internal/bookings/errors"
	"activerse/internal/bookings/repository"
	"activerse/internal/bookings/validator"
	slotserrors "activerse/internal/slots/errors"
	slotsrepo "activerse/internal/slots/repository"
	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, status string, date string, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.BookingStats, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.SlotLockRepository
	slotRepo  slotsrepo.SlotRepository
	validator *validator.BookingValidator
	publisher EventPublisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	slotRepo slotsrepo.SlotRepository,
	validator *validator.BookingValidator,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		slotRepo:  slotRepo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create admits a booking against the 24-guest slot ceiling. The capacity
// check and the ledger increment run under a per-slot advisory lock inside a
// transaction, so the checked sum cannot change before the write lands.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	if err := s.validate(booking); err != nil {
		return err
	}
	if err := s.validator.ValidateFuture(booking); err != nil {
		s.cfg.Log.Warn("Booking rejected: not in the future",
			"booking_date", booking.BookingDate,
			"booking_time", booking.BookingTime,
		)
		return apperrors.Validation("Booking date and time must be in the future", nil)
	}

	lockID, err := s.acquireSlotLock(ctx, booking.BookingDate, booking.BookingTime)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booked, err := s.repo.SumGuestsBySlot(sessCtx, booking.BookingDate, booking.BookingTime, model.CountedStatuses, "")
		if err != nil {
			return apperrors.Internal("Failed to check slot availability", err)
		}
		if booked+booking.NumberOfGuests > model.SlotCapacity {
			return capacityError(model.SlotCapacity - booked)
		}

		if _, err := s.slotRepo.GetOrCreate(sessCtx, booking.BookingDate, booking.BookingTime); err != nil {
			return apperrors.Internal("Failed to initialize time slot", err)
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		if err := s.slotRepo.Adjust(sessCtx, booking.BookingDate, booking.BookingTime, booking.NumberOfGuests); err != nil {
			if errors.Is(err, slotserrors.ErrCapacityExceeded) {
				return capacityError(model.SlotCapacity - booked)
			}
			return apperrors.Internal("Failed to update time slot", err)
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"booking_date", booking.BookingDate,
			"booking_time", booking.BookingTime,
			"number_of_guests", booking.NumberOfGuests,
			"error", err,
		)
		return err
	}

	booking.EstimatedAmount = booking.NumberOfGuests * model.PricePerGuest

	s.publish(ctx, EventBookingCreated, booking)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"booking_date", booking.BookingDate,
		"booking_time", booking.BookingTime,
		"number_of_guests", booking.NumberOfGuests,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, status string, date string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if status != "" && status != model.StatusPending && status != model.StatusConfirmed && status != model.StatusCancelled {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status filter: %s", status))
	}
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return nil, 0, apperrors.InvalidInput("Invalid date filter. Use YYYY-MM-DD.")
		}
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status, date)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, status, date, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Update applies a partial edit. Ledger effects depend on whether the booking
// occupies capacity before and after: a cancellation frees its spots, a slot
// or guest-count change re-checks the target slot excluding the booking
// itself, and a plain pending-to-confirmed transition leaves the ledger
// untouched since pending bookings are already counted.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to check booking existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if existing.Status == model.StatusCancelled && updates.Status != "" && updates.Status != model.StatusCancelled {
		return nil, apperrors.InvalidInput("Cannot change the status of a cancelled booking")
	}

	merged := s.mergeBookingUpdates(existing, updates)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	slotChanged := merged.BookingDate != existing.BookingDate || merged.BookingTime != existing.BookingTime
	if slotChanged {
		if err := s.validator.ValidateFuture(merged); err != nil {
			return nil, apperrors.Validation("Booking date and time must be in the future", nil)
		}
	}

	lockID, err := s.acquireSlotLock(ctx, merged.BookingDate, merged.BookingTime)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.applyLedgerChanges(sessCtx, id, existing, merged, slotChanged); err != nil {
			return err
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.publish(ctx, EventBookingUpdated, merged)
	s.cfg.Log.Info("Booking updated successfully", "id", id, "status", merged.Status)
	return merged, nil
}

func (s *bookingService) applyLedgerChanges(sessCtx mongo.SessionContext, id string, existing, merged *model.Booking, slotChanged bool) error {
	wasCounted := existing.Counted()
	isCounted := merged.Counted()

	switch {
	case wasCounted && !isCounted:
		// Cancellation frees the spots at the original slot.
		if err := s.adjustTolerant(sessCtx, existing.BookingDate, existing.BookingTime, -existing.NumberOfGuests); err != nil {
			return apperrors.Internal("Failed to release time slot capacity", err)
		}
		return nil

	case !isCounted:
		// Editing a cancelled booking never touches the ledger.
		return nil
	}

	guestsChanged := merged.NumberOfGuests != existing.NumberOfGuests
	if !slotChanged && !guestsChanged {
		// Includes pending -> confirmed: already counted, nothing to do.
		return nil
	}

	booked, err := s.repo.SumGuestsBySlot(sessCtx, merged.BookingDate, merged.BookingTime, model.CountedStatuses, id)
	if err != nil {
		return apperrors.Internal("Failed to check slot availability", err)
	}
	if booked+merged.NumberOfGuests > model.SlotCapacity {
		return capacityError(model.SlotCapacity - booked)
	}

	if _, err := s.slotRepo.GetOrCreate(sessCtx, merged.BookingDate, merged.BookingTime); err != nil {
		return apperrors.Internal("Failed to initialize time slot", err)
	}

	if slotChanged {
		if err := s.adjustTolerant(sessCtx, existing.BookingDate, existing.BookingTime, -existing.NumberOfGuests); err != nil {
			return apperrors.Internal("Failed to release time slot capacity", err)
		}
		if err := s.slotRepo.Adjust(sessCtx, merged.BookingDate, merged.BookingTime, merged.NumberOfGuests); err != nil {
			if errors.Is(err, slotserrors.ErrCapacityExceeded) {
				return capacityError(model.SlotCapacity - booked)
			}
			return apperrors.Internal("Failed to update time slot", err)
		}
		return nil
	}

	delta := merged.NumberOfGuests - existing.NumberOfGuests
	if err := s.slotRepo.Adjust(sessCtx, merged.BookingDate, merged.BookingTime, delta); err != nil {
		if errors.Is(err, slotserrors.ErrCapacityExceeded) {
			return capacityError(model.SlotCapacity - booked)
		}
		return apperrors.Internal("Failed to update time slot", err)
	}
	return nil
}

// Delete removes a booking and releases its capacity only when the booking
// was actually occupying it. Deleting a cancelled booking leaves the ledger
// alone.
func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to check booking existence", err)
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to delete booking", err)
		}

		if booking.Counted() {
			if err := s.adjustTolerant(sessCtx, booking.BookingDate, booking.BookingTime, -booking.NumberOfGuests); err != nil {
				return apperrors.Internal("Failed to release time slot capacity", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, EventBookingDeleted, booking)
	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

func (s *bookingService) Stats(ctx context.Context) (*model.BookingStats, error) {
	stats, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to compute booking stats", "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking statistics", err)
	}
	return stats, nil
}

// --- Helpers ---

// applyDefaults resets the server-owned fields. The request body decodes
// straight into the model, so client-supplied values for these must not
// survive.
func (s *bookingService) applyDefaults(b *model.Booking) {
	b.ID = ""
	b.Status = model.StatusPending
	b.PaymentStatus = model.PaymentNotRequired
	b.AmountPaid = 0
	b.Currency = model.CurrencyINR
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.BookingDate != "" {
		merged.BookingDate = updates.BookingDate
	}
	if updates.BookingTime != "" {
		merged.BookingTime = updates.BookingTime
	}
	if updates.NumberOfGuests != nil {
		merged.NumberOfGuests = *updates.NumberOfGuests
	}

	return &merged
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// adjustTolerant applies a negative ledger delta, treating a missing slot row
// as already-released capacity rather than a failure.
func (s *bookingService) adjustTolerant(ctx context.Context, date string, slotTime string, delta int) error {
	err := s.slotRepo.Adjust(ctx, date, slotTime, delta)
	if errors.Is(err, slotserrors.ErrNotFound) {
		s.cfg.Log.Warn("Time slot missing while releasing capacity", "date", date, "time", slotTime)
		return nil
	}
	return err
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if err := s.publisher.PublishBookingEvent(ctx, eventType, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func capacityError(remaining int) *apperrors.AppError {
	if remaining <= 0 {
		return apperrors.Capacity(fmt.Sprintf("This time slot is fully booked. Maximum %d persons per slot.", model.SlotCapacity))
	}
	return apperrors.Capacity(fmt.Sprintf("Only %d spot(s) remaining in this time slot. Please reduce the number of guests.", remaining))
}

// acquireSlotLock creates an advisory lock serializing admission for a slot.
// Returns the lock ID if successful, or conflict error if lock already exists
func (s *bookingService) acquireSlotLock(ctx context.Context, date string, slotTime string) (string, error) {
	lockID := fmt.Sprintf("slot_%s_%s", date, slotTime)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second), // Auto-expire after 10 seconds
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

// releaseSlotLock removes the advisory lock
func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
