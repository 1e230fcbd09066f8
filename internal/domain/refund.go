package domain

import "github.com/shopspring/decimal"

// RefundDecision результат расчета возврата
// Калькулятор не двигает деньги: он сообщает сумму и необходимость освободить вместимость
type RefundDecision struct {
	Fraction         decimal.Decimal
	RefundMinor      int64
	ReleaseCapacity  bool
	AlreadyCancelled bool
	MatchedTier      *RefundTier
}
