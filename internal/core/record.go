package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// CodeWidth is the minimum width product codes are zero-padded to.
const CodeWidth = 6

// PriceScale is the number of decimal places a price keeps. Extra digits are
// rounded half away from zero, as a NUMERIC(12, 2) column does.
const PriceScale = 2

func init() {
	// Prices travel as JSON numbers, matching the spreadsheet and the sync API.
	decimal.MarshalJSONWithoutQuotes = true
}

// Record is one product entry as read from a spreadsheet row or a request
// body. (Code, Store) is the business key.
type Record struct {
	Code        string          `json:"codigo"`
	Barcode     *string         `json:"cod_barra"`
	Description string          `json:"descricao"`
	Price       decimal.Decimal `json:"preco"`
	Store       string          `json:"loja"`
	State       string          `json:"estado"`
	StockLocal  int             `json:"sloja"`
	StockOnHand int             `json:"sestoque"`
	StockMin    int             `json:"sminimo"`
	StockMax    int             `json:"smaximo"`
}

// StoredProduct is a Record as persisted by a ProductStore. ID is assigned by
// the store and is opaque to the core.
type StoredProduct struct {
	ID string `json:"id"`
	Record
	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies a logical product.
type Key struct {
	Code  string
	Store string
}

func (k Key) String() string {
	return k.Code + "|" + k.Store
}

// Key returns the record's business key.
func (r Record) Key() Key {
	return Key{Code: r.Code, Store: r.Store}
}

// NormalizeCode trims s and left-pads it with zeros to CodeWidth characters.
// Codes already at or beyond the width are only trimmed.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if n := CodeWidth - utf8.RuneCountInString(s); n > 0 {
		s = strings.Repeat("0", n) + s
	}
	return s
}

// Normalize applies the code padding rule, trims the key fields and the
// barcode, and rounds the price to PriceScale, so a record posted as
// {"codigo": "7"} matches the row extracted as "000007". An empty code stays
// empty so Validate can reject it.
func (r *Record) Normalize() {
	r.Store = strings.TrimSpace(r.Store)
	r.Price = r.Price.Round(PriceScale)
	if r.Barcode != nil {
		b := strings.TrimSpace(*r.Barcode)
		r.Barcode = &b
	}
	if strings.TrimSpace(r.Code) == "" {
		r.Code = ""
		return
	}
	r.Code = NormalizeCode(r.Code)
}

// Validate reports every rule the record breaks as a ValidationError list.
func (r Record) Validate() error {
	var errs []error

	if r.Code == "" {
		errs = append(errs, ValidationError{Field: "codigo", Message: "must not be empty"})
	}
	if r.Store == "" {
		errs = append(errs, ValidationError{Field: "loja", Message: "must not be empty"})
	}
	if r.Price.IsNegative() {
		errs = append(errs, ValidationError{Field: "preco", Value: r.Price.String(), Message: "must not be negative"})
	}

	stocks := []struct {
		field string
		value int
	}{
		{"sloja", r.StockLocal},
		{"sestoque", r.StockOnHand},
		{"sminimo", r.StockMin},
		{"smaximo", r.StockMax},
	}
	for _, s := range stocks {
		if s.value < 0 {
			errs = append(errs, ValidationError{Field: s.field, Message: "must not be negative"})
		}
	}

	return errors.Join(errs...)
}
