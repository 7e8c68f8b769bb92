package subgraph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"volScope/internal/model"
)

const secondsPerDay = 86400

type poolDayResult struct {
	Date      int64  `json:"date"`
	VolumeUSD string `json:"volumeUSD"`
}

// DayID returns the poolDayData entity id for the UTC day containing date.
func DayID(poolID string, date time.Time) string {
	day := date.UTC().Unix() / secondsPerDay
	return fmt.Sprintf("%s-%d", strings.ToLower(poolID), day)
}

// FetchDailyVolume loads the USD volume traded in the pool on the UTC day of date.
func (c *Client) FetchDailyVolume(ctx context.Context, poolID string, date time.Time) (model.DailyVolume, error) {
	id := DayID(poolID, date)

	var data struct {
		PoolDayDatas []poolDayResult `json:"poolDayDatas"`
	}
	if err := c.query(ctx, "poolDayData", poolDayDataQuery, map[string]any{"id": id}, &data); err != nil {
		return model.DailyVolume{}, err
	}
	if len(data.PoolDayDatas) == 0 {
		return model.DailyVolume{}, fmt.Errorf("pool day %s: %w", id, model.ErrDataUnavailable)
	}

	raw := strings.TrimSpace(data.PoolDayDatas[0].VolumeUSD)
	volume, err := decimal.NewFromString(raw)
	if err != nil {
		return model.DailyVolume{}, fmt.Errorf("parse volumeUSD %q: %w", raw, model.ErrDataUnavailable)
	}

	return model.DailyVolume{
		PoolID:    strings.ToLower(poolID),
		Date:      time.Unix(data.PoolDayDatas[0].Date, 0).UTC(),
		VolumeUSD: volume,
	}, nil
}
