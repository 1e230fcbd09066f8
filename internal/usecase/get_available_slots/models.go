package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-BookingEngine/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	UserID     int64     // ID пользователя (для логирования, не влияет на результат)
	ResourceID int64     // ID ресурса
	Date       time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date          time.Time      // Дата, на которую запрашивались слоты
	ResourceID    int64          // ID ресурса
	IsOpen        bool           // Работает ли ресурс в эту дату
	Slots         []Slot         // Список доступных слотов по возрастанию начала
	NextAvailable *types.Minutes // Ближайший слот (nil, если свободных нет)
}

// Slot модель временного слота
type Slot struct {
	StartTime       types.Minutes // Время начала слота (например, "10:00")
	EndTime         types.Minutes // Время окончания без буфера
	DurationMinutes int           // Длительность слота в минутах
	PriceMinor      int64         // Цена с учетом пикового множителя
	PeakRule        string        // Название сработавшего пикового правила
	AvailableSpots  int           // Количество свободных мест
	TotalSpots      int           // Общее количество мест
}
