package core

import (
	"errors"
	"strings"
)

// Extract converts a raw row into a valid Record.
//
// Every column in Columns must exist in the row; the first absent one yields
// a MissingField error. Null stock cells default to 0, a null price is a
// TypeCoercionFailure, and a record breaking Record.Validate is InvalidValue.
func Extract(row Row) (Record, error) {
	for _, c := range Columns {
		if _, ok := row.Values[c.Key]; !ok {
			return Record{}, &ExtractionError{
				Kind:     MissingField,
				Position: row.Position,
				Field:    c.Header,
				Reason:   "column not found",
			}
		}
	}

	rec := Record{
		State:       text(row.Values[ColState]),
		Description: text(row.Values[ColDescription]),
		Store:       strings.TrimSpace(text(row.Values[ColStore])),
	}

	if code, ok := cellString(row.Values[ColCode]); ok && CleanCell(code) != "" {
		rec.Code = NormalizeCode(CleanCell(code))
	}

	if barcode, ok := cellString(row.Values[ColBarcode]); ok {
		barcode = strings.TrimSpace(barcode)
		rec.Barcode = &barcode
	}

	price, err := parsePrice(row.Values[ColPrice])
	if err != nil {
		return Record{}, coercionError(row.Position, ColPrice, err)
	}
	rec.Price = price.Round(PriceScale)

	stocks := []struct {
		key string
		dst *int
	}{
		{ColStockLocal, &rec.StockLocal},
		{ColStockOnHand, &rec.StockOnHand},
		{ColStockMin, &rec.StockMin},
		{ColStockMax, &rec.StockMax},
	}
	for _, s := range stocks {
		n, err := parseStock(row.Values[s.key])
		if err != nil {
			return Record{}, coercionError(row.Position, s.key, err)
		}
		*s.dst = n
	}

	if err := rec.Validate(); err != nil {
		field := ""
		var ve ValidationError
		if errors.As(err, &ve) {
			field = ve.Field
		}
		return Record{}, &ExtractionError{
			Kind:     InvalidValue,
			Position: row.Position,
			Field:    field,
			Reason:   fieldErrors(err),
		}
	}

	return rec, nil
}

func coercionError(position int, key string, err error) *ExtractionError {
	return &ExtractionError{
		Kind:     TypeCoercionFailure,
		Position: position,
		Field:    HeaderName(key),
		Reason:   err.Error(),
	}
}

// text stringifies an optional cell, mapping null to "".
func text(v any) string {
	s, _ := cellString(v)
	return s
}
