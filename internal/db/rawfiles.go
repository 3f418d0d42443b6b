package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindRawFile returns the ledger entry for (chain, fileURL), or (nil, nil)
// when no attempt has been recorded yet.
func (h *Handle) FindRawFile(chain, fileURL string) (*RawFile, error) {
	var rec RawFile
	err := h.DB.Where("chain = ? AND file_url = ?", chain, fileURL).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertRawFile records a fetch outcome keyed by (chain, file_url). On
// conflict the existing row is overwritten in place; its primary key is left
// alone so price rows referencing it stay valid. rec.ID is populated on
// return.
func (h *Handle) UpsertRawFile(rec *RawFile) error {
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chain"}, {Name: "file_url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"store_id", "storage_path", "content_hash",
			"status", "error", "attempts", "fetched_at",
		}),
	}).Create(rec).Error
	if err != nil {
		return err
	}
	// Re-read: on the conflict path some drivers do not report the surviving
	// primary key back into rec.
	var saved RawFile
	if err := h.DB.Where("chain = ? AND file_url = ?", rec.Chain, rec.FileURL).Take(&saved).Error; err != nil {
		return err
	}
	*rec = saved
	return nil
}

// DownloadedRawFiles returns entries awaiting decode, most recent first.
// When retryFailed is set, previously failed entries are offered again.
func (h *Handle) DownloadedRawFiles(retryFailed bool) ([]RawFile, error) {
	statuses := []string{StatusDownloaded}
	if retryFailed {
		statuses = append(statuses, StatusFailed)
	}
	var recs []RawFile
	err := h.DB.
		Where("status IN ? AND storage_path IS NOT NULL", statuses).
		Order("fetched_at DESC").
		Find(&recs).Error
	return recs, err
}

// MarkParsed transitions a decoded entry to its terminal state.
func (h *Handle) MarkParsed(id uint) error {
	return h.DB.Model(&RawFile{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusParsed, "error": nil}).Error
}

// MarkDecodeFailed records a decode failure. A row that already reached
// parsed is never reverted.
func (h *Handle) MarkDecodeFailed(id uint, cause error) error {
	msg := fmt.Sprintf("decode: %v", cause)
	return h.DB.Model(&RawFile{}).
		Where("id = ? AND status <> ?", id, StatusParsed).
		Updates(map[string]any{"status": StatusFailed, "error": msg}).Error
}
