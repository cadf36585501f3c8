package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column keys used in Row.Values.
const (
	ColState       = "state"
	ColCode        = "code"
	ColBarcode     = "barcode"
	ColDescription = "description"
	ColStockLocal  = "stock_local"
	ColStockOnHand = "stock_on_hand"
	ColPrice       = "price"
	ColStockMin    = "stock_min"
	ColStockMax    = "stock_max"
	ColStore       = "store"
)

// Column describes one spreadsheet column the extractor reads.
type Column struct {
	Key     string   // canonical key
	Header  string   // header as it appears in exported sheets
	Aliases []string // other accepted headers
}

// Columns lists every column a row must carry, in sheet order.
var Columns = []Column{
	{Key: ColState, Header: "estado", Aliases: []string{"state"}},
	{Key: ColCode, Header: "código", Aliases: []string{"codigo"}},
	{Key: ColBarcode, Header: "cód.barra", Aliases: []string{"cod_barra"}},
	{Key: ColDescription, Header: "descrição", Aliases: []string{"descricao"}},
	{Key: ColStockLocal, Header: "sloja"},
	{Key: ColStockOnHand, Header: "sestoque"},
	{Key: ColPrice, Header: "preço", Aliases: []string{"preco"}},
	{Key: ColStockMin, Header: "sminimo"},
	{Key: ColStockMax, Header: "smaximo"},
	{Key: ColStore, Header: "loja"},
}

var headerKeys = func() map[string]string {
	m := make(map[string]string)
	for _, c := range Columns {
		m[foldHeader(c.Header)] = c.Key
		for _, a := range c.Aliases {
			m[foldHeader(a)] = c.Key
		}
	}
	return m
}()

var columnHeaders = func() map[string]string {
	m := make(map[string]string, len(Columns))
	for _, c := range Columns {
		m[c.Key] = c.Header
	}
	return m
}()

// foldHeader lowercases s and strips accents, so "Preço", "PRECO" and
// "preço" all fold to "preco".
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, CleanCell(s))
	if err != nil {
		folded = CleanCell(s)
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ColumnKey returns the canonical key for a sheet header.
func ColumnKey(header string) (string, bool) {
	key, ok := headerKeys[foldHeader(header)]
	return key, ok
}

// HeaderName returns the sheet header for a canonical key.
func HeaderName(key string) string {
	if h, ok := columnHeaders[key]; ok {
		return h
	}
	return key
}

// HeaderIndex maps canonical column keys to their position in a header row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row. Unknown headers are
// ignored and the first occurrence of a repeated column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(Columns))
	for i, h := range header {
		key, ok := ColumnKey(h)
		if !ok {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// Row builds a Row from raw cells. Only columns present in the header become
// keys; blank or short cells become nil values. Cells are only trimmed, so
// free text such as `TUBO 1/2"` reaches the record intact.
func (h HeaderIndex) Row(position int, cells []string) Row {
	values := make(map[string]any, len(h))
	for key, i := range h {
		if i >= len(cells) {
			values[key] = nil
			continue
		}
		cell := strings.TrimSpace(cells[i])
		if cell == "" {
			values[key] = nil
			continue
		}
		values[key] = cell
	}
	return Row{Position: position, Values: values}
}
