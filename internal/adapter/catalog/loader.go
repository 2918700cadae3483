package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/danielgaio/moto-advisor/internal/domain"
	"github.com/danielgaio/moto-advisor/pkg/textx"
)

// textColumns are the row keys whose values feed the review body, in order.
var textColumns = []string{"comment", "text", "review", "notes"}

// priceColumns are tried before falling back to parsing the body text.
var priceColumns = []string{"price_usd_estimate", "price_est", "price", "msrp", "price_usd"}

// engineColumns are tried before falling back to parsing the body text.
var engineColumns = []string{"engine_cc", "cc", "displacement"}

// LoadFile reads a review CSV from disk, rejecting files whose detected
// content type is not text-based.
func LoadFile(path string) ([]domain.CatalogItem, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.LoadFile: detect %s: %w", path, err)
	}
	if !isTextual(mt) {
		return nil, fmt.Errorf("op=catalog.LoadFile: %w: %s has content type %s, want csv or plain text",
			domain.ErrInvalidArgument, path, mt.String())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.LoadFile: open: %w", err)
	}
	defer func() { _ = f.Close() }()
	items, err := Load(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("op=catalog.LoadFile: %s: %w", path, err)
	}
	return items, nil
}

func isTextual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/csv") || m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Load parses CSV rows into catalog items. The first record is the header;
// unknown columns are ignored. Metadata missing from dedicated columns is
// derived from the body text.
func Load(r io.Reader, sourceName string) ([]domain.CatalogItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var items []domain.CatalogItem
	rowNum := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}
		items = append(items, itemFromRow(rec, cols, sourceName, rowNum))
		rowNum++
	}
	return items, nil
}

func itemFromRow(rec []string, cols map[string]int, sourceName string, rowNum int) domain.CatalogItem {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	it := domain.CatalogItem{
		Brand:   field("brand"),
		Model:   field("model"),
		Comment: textx.SanitizeText(field("comment")),
		Text:    textx.SanitizeText(field("text")),
	}
	if y, err := strconv.Atoi(field("year")); err == nil {
		it.Year = y
	}

	var bodyParts []string
	for _, c := range textColumns {
		if v := field(c); v != "" {
			bodyParts = append(bodyParts, v)
		}
	}
	body := strings.Join(bodyParts, " ")

	for _, c := range priceColumns {
		if v := field(c); v != "" {
			if p, ok := ParsePrice(v); ok {
				it.PriceUSDEstimate = int(p)
				break
			}
		}
	}
	if it.PriceUSDEstimate == 0 {
		if p, ok := ParsePrice(body); ok {
			it.PriceUSDEstimate = int(p)
		}
	}

	for _, c := range engineColumns {
		if v := field(c); v != "" {
			if cc, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(v), "cc")); err == nil {
				it.EngineCC = cc
				break
			}
		}
	}
	if it.EngineCC == 0 {
		if cc, ok := ParseEngineCC(body); ok {
			it.EngineCC = cc
		}
	}

	it.SuspensionNotes = ExtractSuspensionNotes(body)
	it.RideType = ExtractRideType(body)

	name := field("name")
	if name == "" {
		name = strconv.Itoa(rowNum)
	}
	it.Source = fmt.Sprintf("%s - row %s", sourceName, name)
	return it
}
