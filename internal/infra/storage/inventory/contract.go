package inventory

import (
	"context"

	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// TransactionManager открывает транзакцию, если вызывающий ее еще не открыл
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
