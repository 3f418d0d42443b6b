package db

import "fmt"

// Migrate creates or updates the schema. The composite unique indexes declared
// on the models are the actual dedup mechanism (raw files by chain+url, prices
// by file+item, stats by day+chain+key), so migration failing here is fatal.
func (h *Handle) Migrate() error {
	if err := h.DB.AutoMigrate(
		&RawFile{},
		&Price{},
		&ProductStatDaily{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}
