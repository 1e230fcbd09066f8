package open_showtime

// OpenShowtimeRequest HTTP request model
// Повторная регистрация уже известных мест их не сбрасывает
type OpenShowtimeRequest struct {
	SeatIDs []string `json:"seatIds"`
}

// OpenShowtimeResponse HTTP response model
type OpenShowtimeResponse struct {
	ShowtimeID int64 `json:"showtimeId"`
	Registered int   `json:"registered"`
}
