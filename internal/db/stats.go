package db

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// PriceSample is one aggregation input: a priced item with a canonical key and
// its effective timestamp (catalog update time when declared, else the time
// the owning file was fetched).
type PriceSample struct {
	Chain        string
	CanonicalKey string
	Price        float64
	EffectiveAt  time.Time
}

type sampleRow struct {
	Chain           string
	CanonicalKey    string
	Price           float64
	PriceUpdateTime *time.Time
	FetchedAt       time.Time
}

// PriceSamplesBetween returns aggregation inputs with an effective timestamp
// inside (from, to]. Rows without a canonical key cannot be compared across
// chains and are excluded. The coarse SQL filter is on fetch time only: a
// file is never fetched before its catalog timestamp, so fetched_at > from is
// a superset of the window. The exact comparison happens here, where it
// behaves the same on every driver.
func (h *Handle) PriceSamplesBetween(ctx context.Context, from, to time.Time) ([]PriceSample, error) {
	var rows []sampleRow
	err := h.DB.WithContext(ctx).
		Table("prices").
		Select("prices.chain AS chain, prices.canonical_key AS canonical_key, prices.price AS price, " +
			"prices.price_update_time AS price_update_time, raw_files.fetched_at AS fetched_at").
		Joins("JOIN raw_files ON raw_files.id = prices.raw_file_id").
		Where("prices.canonical_key IS NOT NULL").
		Where("raw_files.fetched_at > ?", from).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	samples := make([]PriceSample, 0, len(rows))
	for _, r := range rows {
		eff := r.FetchedAt
		if r.PriceUpdateTime != nil {
			eff = *r.PriceUpdateTime
		}
		if !eff.After(from) || eff.After(to) {
			continue
		}
		samples = append(samples, PriceSample{
			Chain:        r.Chain,
			CanonicalKey: r.CanonicalKey,
			Price:        r.Price,
			EffectiveAt:  eff,
		})
	}
	return samples, nil
}

const statBatchSize = 500

// UpsertStats rewrites daily statistics keyed by (day, chain, canonical_key);
// recomputation over the same window is idempotent.
func (h *Handle) UpsertStats(rows []ProductStatDaily) error {
	for start := 0; start < len(rows); start += statBatchSize {
		end := start + statBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		err := h.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}, {Name: "chain"}, {Name: "canonical_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"avg_price", "sample_count", "min_price", "max_price",
			}),
		}).Create(&batch).Error
		if err != nil {
			return err
		}
	}
	return nil
}
