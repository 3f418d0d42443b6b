// internal/pipeline/aggregate.go
package pipeline

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/db"
)

// Aggregator recomputes per-product daily statistics over a trailing window.
// The whole computation is an upsert keyed by (day, chain, canonical_key), so
// re-running it after late-arriving data inside the window is safe.
type Aggregator struct {
	log zerolog.Logger
	db  *db.Handle

	WindowDays int

	now func() time.Time
}

func NewAggregator(log zerolog.Logger, h *db.Handle) *Aggregator {
	return &Aggregator{log: log, db: h, WindowDays: 2, now: time.Now}
}

type statKey struct {
	Day          string
	Chain        string
	CanonicalKey string
}

type statAcc struct {
	sum   float64
	count int
	min   float64
	max   float64
}

// Run recomputes statistics for the window ending now and returns the number
// of (day, chain, canonical_key) groups written.
func (a *Aggregator) Run(ctx context.Context) (int, error) {
	days := a.WindowDays
	if days <= 0 {
		days = 2
	}
	to := a.now()
	from := to.AddDate(0, 0, -days)

	samples, err := a.db.PriceSamplesBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	groups := map[statKey]*statAcc{}
	for _, s := range samples {
		key := statKey{
			Day:          s.EffectiveAt.Format("2006-01-02"),
			Chain:        s.Chain,
			CanonicalKey: s.CanonicalKey,
		}
		acc, ok := groups[key]
		if !ok {
			acc = &statAcc{min: s.Price, max: s.Price}
			groups[key] = acc
		}
		acc.sum += s.Price
		acc.count++
		if s.Price < acc.min {
			acc.min = s.Price
		}
		if s.Price > acc.max {
			acc.max = s.Price
		}
	}

	rows := make([]db.ProductStatDaily, 0, len(groups))
	for key, acc := range groups {
		rows = append(rows, db.ProductStatDaily{
			Day:          key.Day,
			Chain:        key.Chain,
			CanonicalKey: key.CanonicalKey,
			AvgPrice:     math.Round(acc.sum/float64(acc.count)*100) / 100,
			SampleCount:  acc.count,
			MinPrice:     acc.min,
			MaxPrice:     acc.max,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		if rows[i].Chain != rows[j].Chain {
			return rows[i].Chain < rows[j].Chain
		}
		return rows[i].CanonicalKey < rows[j].CanonicalKey
	})

	if err := a.db.UpsertStats(rows); err != nil {
		return 0, err
	}
	a.log.Info().
		Int("samples", len(samples)).
		Int("groups", len(rows)).
		Str("from", from.Format(time.RFC3339)).
		Str("to", to.Format(time.RFC3339)).
		Msg("aggregation done")
	return len(rows), nil
}
