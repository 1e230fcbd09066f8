package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/ptr"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// GetResourceBookingsRequest запрос на получение бронирований ресурса
type GetResourceBookingsRequest struct {
	ResourceID      int64      `json:"resourceId"`
	Date            *time.Time `json:"date,omitempty"`            // Конкретная дата (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить отменённые бронирования
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetResourceBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		ResourceID:      r.ResourceID,
		Date:            r.Date,
		IncludeInactive: r.IncludeInactive,
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID         int64  `json:"id"`
	ResourceID int64  `json:"resourceId"`
	UserID     int64  `json:"userId"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`

	// Слоты
	BookingDate     *string `json:"bookingDate,omitempty"` // "2025-10-15"
	StartTime       *string `json:"startTime,omitempty"`   // "10:00"
	DurationMinutes int     `json:"durationMinutes,omitempty"`

	// Посуточно
	CheckIn  *string `json:"checkIn,omitempty"`
	CheckOut *string `json:"checkOut,omitempty"`

	// Места
	ShowtimeID *int64   `json:"showtimeId,omitempty"`
	SeatIDs    []string `json:"seatIds,omitempty"`

	Quantity    int       `json:"quantity"`
	AmountMinor int64     `json:"amountMinor"`
	EventStart  time.Time `json:"eventStart"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format
	RefundMinor        *int64  `json:"refundMinor,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		ResourceID:         b.ResourceID,
		UserID:             b.UserID,
		Kind:               string(b.Kind),
		Status:             string(b.Status),
		Quantity:           b.Quantity,
		AmountMinor:        b.AmountMinor,
		EventStart:         b.EventStart,
		CancellationReason: b.CancellationReason,
		RefundMinor:        b.RefundMinor,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	switch b.Kind {
	case domain.KindSlot:
		resp.BookingDate = ptr.Ptr(b.BookingDate.Format(domain.DateFormat))
		resp.StartTime = ptr.Ptr(b.StartTime.String())
		resp.DurationMinutes = b.DurationMinutes
	case domain.KindDateRange:
		resp.CheckIn = ptr.Ptr(b.CheckIn.Format(domain.DateFormat))
		resp.CheckOut = ptr.Ptr(b.CheckOut.Format(domain.DateFormat))
	case domain.KindSeat:
		resp.ShowtimeID = b.ShowtimeID
		resp.SeatIDs = b.SeatIDs
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		resp.CancelledAt = ptr.Ptr(b.CancelledAt.Format(time.RFC3339))
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
