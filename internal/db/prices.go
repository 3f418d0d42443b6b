package db

import (
	"gorm.io/gorm/clause"
)

// priceBatchSize bounds a single upsert statement.
const priceBatchSize = 500

// UpsertPrices writes price rows in batches, keyed by (raw_file_id,
// item_code). Batches already committed stay committed when a later batch
// fails; reprocessing the file corrects the partial state.
func (h *Handle) UpsertPrices(rows []Price) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += priceBatchSize {
		end := start + priceBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		err := h.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "raw_file_id"}, {Name: "item_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"chain", "sub_chain_id", "store_id", "bikoret_no",
				"barcode", "item_name", "canonical_key", "price",
				"unit_qty", "unit_of_measure", "price_update_time",
				"last_sale_at", "is_weighted", "qty_in_package",
			}),
		}).Create(&batch).Error
		if err != nil {
			return written, err
		}
		written += len(batch)
	}
	return written, nil
}
