package create_booking

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Request модель запроса на создание бронирования
// Набор полей зависит от вида ресурса
type Request struct {
	UserID     int64 // ID пользователя
	ResourceID int64 // ID ресурса (для мест берется из сеанса)
	Quantity   int   // Количество единиц (0 = 1), для мест не используется

	// Слот
	Date      time.Time
	StartTime types.Minutes

	// Посуточно
	CheckIn  time.Time
	CheckOut time.Time

	// Места на сеансе
	ShowtimeID int64
	SeatIDs    []string
	Holder     string // токен, полученный при удержании мест
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking       *domain.Booking
	TransactionID string // пусто для бесплатного бронирования
}

