package core

import (
	"context"
	"strconv"
	"testing"
)

// ============================================================================
// Coercion Benchmarks
// ============================================================================

// BenchmarkParsePrice covers the price formats seen in exported sheets.
// This is a hot path during spreadsheet import.
func BenchmarkParsePrice(b *testing.B) {
	testCases := []any{
		"12.50",
		"12,50",       // Decimal comma
		"R$ 1.234,56", // Brazilian currency
		"1,234.56",    // Thousands separators
		"  999.99  ",  // Whitespace
		12.5,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = parsePrice(tc)
		}
	}
}

// BenchmarkParseStock_Simple benchmarks the most common case: plain integers.
func BenchmarkParseStock_Simple(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = parseStock("12345")
	}
}

// BenchmarkFoldHeader benchmarks accent-insensitive header matching.
func BenchmarkFoldHeader(b *testing.B) {
	headers := []string{"Código", "CÓD.BARRA", "Descrição", "Preço", "sloja"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, h := range headers {
			ColumnKey(h)
		}
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkExtract measures one row through the extractor.
func BenchmarkExtract(b *testing.B) {
	row := fullRow(2, "42", "A", "12,50")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Extract(row)
	}
}

// BenchmarkOrchestratorRun measures a 1000-row batch against the in-package
// fake store. Every row after the first run is an update.
func BenchmarkOrchestratorRun(b *testing.B) {
	rows := make([]Row, 1000)
	for i := range rows {
		rows[i] = fullRow(i+2, strconv.Itoa(i), "A", "1.00")
	}
	src := sliceSource{name: "bench", rows: rows}
	orch := NewOrchestrator(NewResolver(&fakeStore{}))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		orch.Run(ctx, src)
	}
}
