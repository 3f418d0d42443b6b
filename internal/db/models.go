// internal/db/models.go
package db

import "time"

// RawFile status values. downloaded -> parsed on successful decode; failed and
// skipped are terminal for the fetch stage, parsed for the decode stage.
const (
	StatusDownloaded = "downloaded"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
	StatusParsed     = "parsed"
)

// raw_files holds one row per download attempt, upserted by (chain,
// file_url): a retry overwrites the row. The numeric ID survives re-upserts,
// so price rows can reference it safely.
type RawFile struct {
	ID          uint    `gorm:"primaryKey"`
	Chain       string  `gorm:"size:32;uniqueIndex:uniq_chain_file_url,priority:1"`
	FileURL     string  `gorm:"size:1024;uniqueIndex:uniq_chain_file_url,priority:2"`
	StoreID     *string `gorm:"size:8"`
	StoragePath *string `gorm:"size:1024"`
	ContentHash *string `gorm:"size:64;index"`
	Status      string  `gorm:"size:16;index"`
	Error       *string `gorm:"type:text"`
	Attempts    int
	FetchedAt   time.Time
}

// prices holds one row per catalog line item per ingested file, unique per
// (raw_file_id, item_code) so re-parsing the same file upserts.
type Price struct {
	ID              uint   `gorm:"primaryKey"`
	RawFileID       uint   `gorm:"uniqueIndex:uniq_file_item,priority:1;index"`
	Chain           string `gorm:"size:32;index"`
	SubChainID      string `gorm:"size:16"`
	StoreID         string `gorm:"size:8"`
	BikoretNo       *int
	ItemCode        string  `gorm:"size:64;uniqueIndex:uniq_file_item,priority:2"`
	Barcode         *string `gorm:"size:14;index"`
	ItemName        string  `gorm:"size:512"`
	CanonicalKey    *string `gorm:"size:512;index"`
	Price           float64
	UnitQty         *string `gorm:"size:64"`
	UnitOfMeasure   *string `gorm:"size:64"`
	PriceUpdateTime *time.Time
	LastSaleAt      *time.Time
	IsWeighted      *bool
	QtyInPackage    *string `gorm:"size:32"`
}

// product_stats_dailies holds one row per (day, chain, canonical_key).
// Day is a plain YYYY-MM-DD string so the unique index behaves the same on
// sqlite, postgres and mysql.
type ProductStatDaily struct {
	ID           uint   `gorm:"primaryKey"`
	Day          string `gorm:"size:10;uniqueIndex:uniq_day_chain_key,priority:1"`
	Chain        string `gorm:"size:32;uniqueIndex:uniq_day_chain_key,priority:2"`
	CanonicalKey string `gorm:"size:512;uniqueIndex:uniq_day_chain_key,priority:3"`
	AvgPrice     float64
	SampleCount  int
	MinPrice     float64
	MaxPrice     float64
}
