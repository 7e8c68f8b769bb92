package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyVolume is the USD-denominated traded volume of a pool for one UTC day.
type DailyVolume struct {
	PoolID    string
	Date      time.Time
	VolumeUSD decimal.Decimal
}
