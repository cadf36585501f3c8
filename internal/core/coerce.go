package core

// coerce.go turns raw spreadsheet cells into Record field values.
//
// Cells arrive either as strings (CSV, xlsx formatted values) or as native
// numbers (callers building Rows by hand). Exported sheets are messy:
//   - Excel formula prefixes (="000123")
//   - "R$" currency prefixes and Brazilian decimal commas in prices
//   - integral stock values written as "12.0"

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex matches integers, decimals, and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// maxStock bounds quantities to the INTEGER column range.
var maxStock = decimal.NewFromInt(math.MaxInt32)

// CleanCell removes common spreadsheet artifacts from a cell value:
//   - surrounding whitespace
//   - the Excel formula prefix (="...")
//   - surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// cellString stringifies a cell. ok is false for a null cell.
func cellString(v any) (s string, ok bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case decimal.Decimal:
		return x.String(), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// toDecimal parses a cell into a decimal. Blank strings report ok=false so
// callers can apply their null policy.
func toDecimal(v any) (d decimal.Decimal, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		return x, true, nil
	case float64:
		return decimal.NewFromFloat(x), true, nil
	case int:
		return decimal.NewFromInt(int64(x)), true, nil
	case int64:
		return decimal.NewFromInt(x), true, nil
	}

	s, _ := cellString(v)
	s = normalizeNumber(CleanCell(s))
	if s == "" {
		return decimal.Zero, false, nil
	}
	if !numericRegex.MatchString(s) {
		return decimal.Zero, true, fmt.Errorf("%q is not a number", s)
	}
	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, true, fmt.Errorf("%q is not a number", s)
	}
	return d, true, nil
}

// normalizeNumber strips the currency prefix and converts Brazilian
// formatting ("1.234,56") to a plain decimal ("1234.56").
func normalizeNumber(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// parseStock reads a stock quantity. Null cells become 0. Fractional values
// are truncated toward zero, as the exported sheets store quantities as floats.
func parseStock(v any) (int, error) {
	d, ok, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if d.Abs().GreaterThan(maxStock) {
		return 0, fmt.Errorf("%s is out of range", d)
	}
	return int(d.IntPart()), nil
}

// parsePrice reads a price. Unlike stock there is no default: a null cell is
// an error.
func parsePrice(v any) (decimal.Decimal, error) {
	d, ok, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, errors.New("value is required")
	}
	return d, nil
}
