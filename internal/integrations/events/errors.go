package events

import "errors"

var (
	// ErrEncode ошибка сериализации события
	ErrEncode = errors.New("events: failed to encode event")

	// ErrPublish ошибка отправки события брокеру
	ErrPublish = errors.New("events: failed to publish event")

	// ErrConnect ошибка подключения к брокеру
	ErrConnect = errors.New("events: failed to connect to broker")
)
