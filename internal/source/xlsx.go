package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/xuri/excelize/v2"
)

// XLSX reads the first sheet of an Excel workbook. Row 1 is the header.
type XLSX struct {
	file
}

// NewXLSX wraps workbook bytes.
func NewXLSX(name, fileName string, data []byte) *XLSX {
	return &XLSX{file: newFile(name, fileName, data)}
}

// Rows parses the workbook. Any failure to open or read it is reported as
// core.ErrSourceUnavailable.
func (x *XLSX) Rows(ctx context.Context) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(x.data))
	if err != nil {
		return nil, core.SourceUnavailable(x.name, fmt.Errorf("open workbook %s: %w", x.fileName, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.SourceUnavailable(x.name, errors.New("no sheets found in workbook"))
	}

	// Raw values keep numbers unformatted: 12.5 rather than "R$ 12,50".
	lines, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, core.SourceUnavailable(x.name, fmt.Errorf("read sheet %q: %w", sheets[0], err))
	}
	if len(lines) == 0 {
		return nil, core.SourceUnavailable(x.name, fmt.Errorf("sheet %q has no header row", sheets[0]))
	}

	return buildRows(lines[0], lines[1:]), nil
}
