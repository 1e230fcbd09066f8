package events

import "context"

// Noop отбрасывает события (events.driver = "none")
type Noop struct{}

func (Noop) Publish(ctx context.Context, event Event) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
