package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV reads a delimited export. The delimiter (";" or ",") is detected from
// the header line, and files that are not valid UTF-8 are decoded as
// Windows-1252, which is what spreadsheet tools write on Brazilian Windows.
type CSV struct {
	file
}

// NewCSV wraps CSV bytes.
func NewCSV(name, fileName string, data []byte) *CSV {
	return &CSV{file: newFile(name, fileName, data)}
}

// Rows parses the file. The header is line 1.
func (c *CSV) Rows(ctx context.Context) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := decodeText(c.data)
	br := bufio.NewReader(text)

	// The header line of an export fits comfortably in the default buffer.
	first, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, core.SourceUnavailable(c.name, fmt.Errorf("read %s: %w", c.fileName, err))
	}

	r := csv.NewReader(br)
	r.Comma = detectDelimiter(first)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	lines, err := r.ReadAll()
	if err != nil {
		return nil, core.SourceUnavailable(c.name, fmt.Errorf("invalid csv %s: %w", c.fileName, err))
	}
	if len(lines) == 0 {
		return nil, core.SourceUnavailable(c.name, fmt.Errorf("empty file: %s has no header row", c.fileName))
	}

	return buildRows(lines[0], lines[1:]), nil
}

// decodeText strips a UTF-8 BOM, or decodes Windows-1252 when the content is
// not valid UTF-8.
func decodeText(data []byte) io.Reader {
	if utf8.Valid(data) {
		return bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))
	}
	return charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(data))
}

// detectDelimiter picks ";" when the first line has more semicolons than
// commas. Brazilian exports use ";" because "," is the decimal separator.
func detectDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
