package postgres

import (
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/shopspring/decimal"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"normal identifier", "produtos", `"produtos"`},
		{"reserved word still quoted", "select", `"select"`},
		{"contains double quote - escaped", `cod"igo`, `"cod""igo"`},
		{"sql injection attempt safely quoted", `loja"; DROP TABLE produtos; --`, `"loja""; DROP TABLE produtos; --"`},
		{"empty string", "", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteIdentifier(tt.input); got != tt.want {
				t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildWhere(t *testing.T) {
	where, args, err := buildWhere(core.KeyFilter(core.Key{Code: "000042", Store: "A"}), 11)
	if err != nil {
		t.Fatalf("buildWhere() error = %v", err)
	}

	wantWhere := ` WHERE "codigo" = $11 AND "loja" = $12`
	if where != wantWhere {
		t.Errorf("where = %q, want %q", where, wantWhere)
	}
	if !reflect.DeepEqual(args, []any{"000042", "A"}) {
		t.Errorf("args = %v", args)
	}
}

func TestBuildWhere_EmptyMatchesNothing(t *testing.T) {
	where, args, err := buildWhere(nil, 1)
	if err != nil {
		t.Fatalf("buildWhere() error = %v", err)
	}
	if where != " WHERE FALSE" || len(args) != 0 {
		t.Errorf("buildWhere(nil) = %q, %v", where, args)
	}
}

func TestBuildWhere_RejectsUnknownColumn(t *testing.T) {
	_, _, err := buildWhere(core.Filter{{Field: "preco; --", Value: "1"}}, 1)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	if !strings.Contains(err.Error(), "unknown column") {
		t.Errorf("error = %v", err)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "12.5", "1234.56", "0.01", "100"} {
		d := decimal.RequireFromString(s)
		got, err := fromPgNumeric(toPgNumeric(d))
		if err != nil {
			t.Fatalf("fromPgNumeric(%s) error = %v", s, err)
		}
		if !got.Equal(d) {
			t.Errorf("round trip %s = %s", s, got)
		}
	}
}

func TestTextConversion(t *testing.T) {
	if toPgText(nil).Valid {
		t.Error("toPgText(nil) should be NULL")
	}
	blank := "  "
	if got := toPgText(&blank); !got.Valid || got.String != "" {
		t.Errorf("toPgText(blank) = %+v, want valid empty", got)
	}
	if fromPgText(toPgText(nil)) != nil {
		t.Error("fromPgText(NULL) should be nil")
	}
}

func TestUUIDConversion(t *testing.T) {
	const id = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	if got := pgUUIDToString(toPgUUID(id)); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
	if toPgUUID("not-a-uuid").Valid {
		t.Error("toPgUUID(invalid) should be NULL")
	}
	if pgUUIDToString(toPgUUID("")) != "" {
		t.Error("NULL UUID should render empty")
	}
}
