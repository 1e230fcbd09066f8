package payments

import "errors"

var (
	// ErrDeclined возвращается, когда шлюз отклонил операцию
	ErrDeclined = errors.New("payments client: operation declined")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("payments client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("payments client: invalid response")
)
