package cancellation

import "github.com/m04kA/SMC-BookingEngine/internal/domain"

// Request запрос на отмену бронирования
type Request struct {
	BookingID int64
	UserID    int64 // инициатор; должен быть владельцем бронирования
	Reason    string
}

// Result итог отмены
// Повторная отмена возвращает сохраненный итог с Decision.AlreadyCancelled = true
type Result struct {
	Booking         *domain.Booking
	Decision        domain.RefundDecision
	RefundRequested bool // запрос на возврат принят шлюзом
}
