package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "activerse/pkg/errors"
	"activerse/pkg/logger"
	"activerse/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc  func(ctx context.Context, booking *model.Booking) error
	getByIDFunc func(ctx context.Context, id string) (*model.Booking, error)
	getAllFunc  func(ctx context.Context, status string, date string, limit int, offset int64) ([]*model.Booking, int64, error)
	updateFunc  func(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	deleteFunc  func(ctx context.Context, id string) error
	statsFunc   func(ctx context.Context) (*model.BookingStats, error)
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	return nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, status string, date string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, status, date, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, updates)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingService) Stats(ctx context.Context) (*model.BookingStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &model.BookingStats{}, nil
}

func newTestHandler(service *mockBookingService) *BookingHandler {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  "json",
		Service: "test",
	})
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func TestCreate_ReturnsCreatedWithConfirmationMessage(t *testing.T) {
	service := &mockBookingService{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "68b1c2d3e4f5a6b7c8d9e0f1"
			booking.Status = model.StatusPending
			return nil
		},
	}
	handler := newTestHandler(service)

	body := `{"name":"Asha Verma","email":"asha@example.com","phone":"+919876543210","booking_date":"2030-06-15","booking_time":"19:00","number_of_guests":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	var resp createResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "68b1c2d3e4f5a6b7c8d9e0f1" {
		t.Errorf("expected the new booking id, got %q", resp.ID)
	}
	if resp.Message != "Booking request submitted successfully! We will contact you soon to confirm." {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if resp.Booking == nil || resp.Booking.Status != model.StatusPending {
		t.Error("expected the created booking with pending status in the response")
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	handler := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestCreate_CapacityRejectionPropagates(t *testing.T) {
	service := &mockBookingService{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			return apperrors.Capacity("This time slot is fully booked. Maximum 24 persons per slot.")
		},
	}
	handler := newTestHandler(service)

	body := `{"name":"Asha Verma","email":"asha@example.com","phone":"+919876543210","booking_date":"2030-06-15","booking_time":"19:00","number_of_guests":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fully booked") {
		t.Errorf("expected the capacity message in the body, got %s", w.Body.String())
	}
}

func TestGetAll_ForwardsFiltersAndPagination(t *testing.T) {
	var gotStatus, gotDate string
	var gotLimit int
	var gotOffset int64
	service := &mockBookingService{
		getAllFunc: func(ctx context.Context, status string, date string, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotStatus, gotDate, gotLimit, gotOffset = status, date, limit, offset
			return []*model.Booking{{ID: "a"}, {ID: "b"}}, 2, nil
		},
	}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings?status=pending&date=2030-06-15&limit=10&offset=5", nil)
	w := httptest.NewRecorder()

	handler.GetAll(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotStatus != "pending" || gotDate != "2030-06-15" {
		t.Errorf("filters not forwarded: status=%q date=%q", gotStatus, gotDate)
	}
	if gotLimit != 10 || gotOffset != 5 {
		t.Errorf("pagination not forwarded: limit=%d offset=%d", gotLimit, gotOffset)
	}
}

func TestGetAll_RejectsMalformedPagination(t *testing.T) {
	handler := newTestHandler(&mockBookingService{})

	for _, query := range []string{"?limit=abc", "?offset=xyz"} {
		req := httptest.NewRequest(http.MethodGet, "/api/bookings"+query, nil)
		w := httptest.NewRecorder()

		handler.GetAll(w, req, httprouter.Params{})

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, w.Code)
		}
	}
}

func TestUpdate_ReturnsUpdatedBooking(t *testing.T) {
	service := &mockBookingService{
		updateFunc: func(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: model.StatusConfirmed}, nil
		},
	}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodPut, "/api/bookings/abc", strings.NewReader(`{"status":"confirmed"}`))
	w := httptest.NewRecorder()

	handler.Update(w, req, httprouter.Params{{Key: "id", Value: "abc"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp updateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Booking updated successfully" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if resp.Booking == nil || resp.Booking.Status != model.StatusConfirmed {
		t.Error("expected the updated booking in the response")
	}
}

func TestDelete_ReturnsConfirmation(t *testing.T) {
	handler := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/bookings/abc", nil)
	w := httptest.NewRecorder()

	handler.Delete(w, req, httprouter.Params{{Key: "id", Value: "abc"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Booking deleted successfully") {
		t.Errorf("expected deletion confirmation, got %s", w.Body.String())
	}
}

func TestGetByID_NotFound(t *testing.T) {
	service := &mockBookingService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/missing", nil)
	w := httptest.NewRecorder()

	handler.GetByID(w, req, httprouter.Params{{Key: "id", Value: "missing"}})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
