// internal/pipeline/decode.go
package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/idoschwartz11/MySmartCart/internal/canon"
	"github.com/idoschwartz11/MySmartCart/internal/db"
	"github.com/idoschwartz11/MySmartCart/internal/names"
	"github.com/idoschwartz11/MySmartCart/internal/storage"
)

var errNoItems = errors.New("no items")

// Decoder turns downloaded ledger entries into normalized price rows. It runs
// independently of discovery: the two stages share nothing but the ledger's
// status field.
type Decoder struct {
	log   zerolog.Logger
	db    *db.Handle
	store storage.ObjectStore

	Batch       int  // files handled per run
	RetryFailed bool // offer previously failed decodes again

	now func() time.Time
}

func NewDecoder(log zerolog.Logger, h *db.Handle, store storage.ObjectStore) *Decoder {
	return &Decoder{log: log, db: h, store: store, Batch: 50, now: time.Now}
}

type DecodeSummary struct {
	Parsed int
	Failed int
	Rows   int
}

// Run decodes up to Batch downloaded catalogs, most recent first. Per-file
// failures mark that file failed and move on.
func (d *Decoder) Run(ctx context.Context) (DecodeSummary, error) {
	var sum DecodeSummary

	recs, err := d.db.DownloadedRawFiles(d.RetryFailed)
	if err != nil {
		return sum, err
	}

	batch := d.Batch
	if batch <= 0 {
		batch = 50
	}
	handled := 0
	for _, rec := range recs {
		if handled >= batch {
			break
		}
		if rec.StoragePath == nil || !names.IsCatalogFile(path.Base(*rec.StoragePath)) {
			continue
		}
		handled++

		log := d.log.With().Str("chain", rec.Chain).Str("path", *rec.StoragePath).Logger()
		rows, err := d.decodeFile(ctx, &rec)
		if err != nil {
			log.Warn().Err(err).Msg("decode failed")
			if err := d.db.MarkDecodeFailed(rec.ID, err); err != nil {
				log.Error().Err(err).Msg("ledger update failed")
			}
			sum.Failed++
			continue
		}

		written, err := d.db.UpsertPrices(rows)
		if err != nil {
			// batches already committed stay; reprocessing corrects the rest
			log.Error().Err(err).Int("written", written).Msg("price upsert failed")
			if err := d.db.MarkDecodeFailed(rec.ID, fmt.Errorf("upsert after %d rows: %w", written, err)); err != nil {
				log.Error().Err(err).Msg("ledger update failed")
			}
			sum.Failed++
			continue
		}
		if err := d.db.MarkParsed(rec.ID); err != nil {
			log.Error().Err(err).Msg("ledger update failed")
			sum.Failed++
			continue
		}
		sum.Parsed++
		sum.Rows += written
		log.Info().Int("rows", written).Msg("catalog parsed")
	}

	d.log.Info().Int("parsed", sum.Parsed).Int("failed", sum.Failed).Int("rows", sum.Rows).Msg("decode run done")
	return sum, nil
}

func (d *Decoder) decodeFile(ctx context.Context, rec *db.RawFile) ([]db.Price, error) {
	data, err := d.store.Get(ctx, *rec.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("object fetch: %w", err)
	}
	// storage is not assumed trustworthy; re-check the signature
	if len(data) < 2 || data[0] != gzipMagic[0] || data[1] != gzipMagic[1] {
		return nil, fmt.Errorf("stored object is not gzip, first bytes: %q", preview(data, 16))
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	defer gz.Close()
	xmlBytes, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}

	cat, err := parseCatalog(bytes.NewReader(xmlBytes))
	if err != nil {
		return nil, err
	}
	return buildRows(rec, cat)
}

var barcodeRe = regexp.MustCompile(`^\d{8,14}$`)

// buildRows validates and normalizes decoded items. Invalid rows are dropped
// individually; an unidentifiable store or an empty result fails the file.
func buildRows(rec *db.RawFile, cat *catalog) ([]db.Price, error) {
	// the XML-declared store id wins over what the filename grammar found
	storeID := ""
	switch {
	case cat.StoreID != "":
		storeID = names.PadStoreID(cat.StoreID)
	case rec.StoreID != nil && *rec.StoreID != "":
		storeID = *rec.StoreID
	default:
		return nil, errors.New("no store id in catalog or ledger")
	}

	var bikoret *int
	if cat.BikoretNo != "" {
		if n, err := strconv.Atoi(cat.BikoretNo); err == nil {
			bikoret = &n
		}
	}

	rows := make([]db.Price, 0, len(cat.Items))
	for _, it := range cat.Items {
		name := strings.Join(strings.Fields(it.Name), " ")
		if name == "" {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(it.Price), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		code := strings.TrimSpace(it.Code)
		if code == "" {
			continue
		}

		row := db.Price{
			RawFileID:  rec.ID,
			Chain:      rec.Chain,
			SubChainID: cat.SubChainID,
			StoreID:    storeID,
			BikoretNo:  bikoret,
			ItemCode:   code,
			ItemName:   name,
			Price:      price,
		}
		if barcodeRe.MatchString(code) {
			row.Barcode = &code
		}
		if key, ok := canon.Normalize(name); ok {
			row.CanonicalKey = &key
		}
		if v := strings.TrimSpace(it.UnitQty); v != "" {
			row.UnitQty = &v
		}
		if v := strings.TrimSpace(it.UnitOfMeas); v != "" {
			row.UnitOfMeasure = &v
		}
		if t, ok := parseVendorTime(it.PriceUpdate); ok {
			row.PriceUpdateTime = &t
		}
		if t, ok := parseVendorTime(it.LastSale); ok {
			row.LastSaleAt = &t
		}
		row.IsWeighted = parseTriState(it.IsWeighted)
		if v := strings.TrimSpace(it.QtyInPackage); v != "" {
			row.QtyInPackage = &v
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errNoItems
	}
	return rows, nil
}

// timestamp spellings seen across chain export tools
var vendorTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"20060102150405",
	"2006-01-02",
}

func parseVendorTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range vendorTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTriState(s string) *bool {
	v := true
	f := false
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "y", "true", "yes":
		return &v
	case "0", "n", "false", "no":
		return &f
	default:
		return nil
	}
}
