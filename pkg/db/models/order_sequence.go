package models

// OrderSequence backs human-readable order numbers. One row per day key
// (YYYYMMDD), bumped with an atomic upsert so concurrent order creation
// never hands out the same number twice.
type OrderSequence struct {
	DayKey  string `gorm:"column:day_key;primaryKey"`
	Counter int64  `gorm:"column:counter;not null;default:0"`
}

func (OrderSequence) TableName() string { return "order_sequences" }
