package allocator

import "errors"

var (
	// ErrInvalidRequest некорректное количество, диапазон дат или набор мест
	ErrInvalidRequest = errors.New("allocator: invalid request")

	// ErrStore ошибка хранилища вместимости
	ErrStore = errors.New("allocator: store error")
)
