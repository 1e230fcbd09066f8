package seatlease

import "errors"

var (
	// ErrScript возвращается при ошибке выполнения Lua-скрипта
	ErrScript = errors.New("seatlease.cache: script failed")

	// ErrUnexpectedReply возвращается, когда Redis вернул ответ неожиданного формата
	ErrUnexpectedReply = errors.New("seatlease.cache: unexpected reply")
)
