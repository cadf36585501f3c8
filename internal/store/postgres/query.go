package postgres

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/estoque-sync/internal/core"
)

// productColumns is the column list every product query returns, in scan order.
const productColumns = `id, codigo, cod_barra, descricao, preco, loja, estado, sloja, sestoque, sminimo, smaximo, updated_at`

// filterable lists the columns a core.Filter may reference. Anything else is
// rejected before it reaches SQL.
var filterable = map[string]bool{
	"id":        true,
	"codigo":    true,
	"cod_barra": true,
	"descricao": true,
	"loja":      true,
	"estado":    true,
}

// quoteIdentifier safely quotes a PostgreSQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// buildWhere renders f as a WHERE clause with placeholders numbered from
// firstArg. An empty filter matches nothing.
func buildWhere(f core.Filter, firstArg int) (string, []any, error) {
	if len(f) == 0 {
		return " WHERE FALSE", nil, nil
	}

	conditions := make([]string, len(f))
	args := make([]any, len(f))
	for i, p := range f {
		if !filterable[p.Field] {
			return "", nil, fmt.Errorf("filter on unknown column %q", p.Field)
		}
		conditions[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(p.Field), firstArg+i)
		args[i] = p.Value
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}
