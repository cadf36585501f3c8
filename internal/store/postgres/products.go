package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Select returns the products matching f, oldest first.
func (s *Store) Select(ctx context.Context, f core.Filter) ([]core.StoredProduct, error) {
	where, args, err := buildWhere(f, 1)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + ` FROM produtos` + where + ` ORDER BY created_at`
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select produtos: %w", err)
	}
	return collectProducts(rows)
}

// Insert stores rec and returns the new row.
func (s *Store) Insert(ctx context.Context, rec core.Record) ([]core.StoredProduct, error) {
	query := `INSERT INTO produtos (codigo, cod_barra, descricao, preco, loja, estado, sloja, sestoque, sminimo, smaximo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + productColumns

	rows, err := s.db.Query(ctx, query, recordArgs(rec)...)
	if err != nil {
		return nil, wrapErr("insert produto", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, wrapErr("insert produto", err)
	}
	return products, nil
}

// Update overwrites every field of the products matching f.
func (s *Store) Update(ctx context.Context, rec core.Record, f core.Filter) ([]core.StoredProduct, error) {
	args := recordArgs(rec)
	where, whereArgs, err := buildWhere(f, len(args)+1)
	if err != nil {
		return nil, err
	}

	query := `UPDATE produtos SET
		codigo = $1, cod_barra = $2, descricao = $3, preco = $4, loja = $5, estado = $6,
		sloja = $7, sestoque = $8, sminimo = $9, smaximo = $10, updated_at = now()` +
		where + ` RETURNING ` + productColumns

	rows, err := s.db.Query(ctx, query, append(args, whereArgs...)...)
	if err != nil {
		return nil, wrapErr("update produto", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, wrapErr("update produto", err)
	}
	return products, nil
}

// List returns up to limit products, most recently updated first.
func (s *Store) List(ctx context.Context, limit int) ([]core.StoredProduct, error) {
	query := `SELECT ` + productColumns + ` FROM produtos ORDER BY updated_at DESC LIMIT $1`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list produtos: %w", err)
	}
	return collectProducts(rows)
}

func recordArgs(rec core.Record) []any {
	return []any{
		rec.Code,
		toPgText(rec.Barcode),
		rec.Description,
		toPgNumeric(rec.Price),
		rec.Store,
		rec.State,
		rec.StockLocal,
		rec.StockOnHand,
		rec.StockMin,
		rec.StockMax,
	}
}

func collectProducts(rows pgx.Rows) ([]core.StoredProduct, error) {
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (core.StoredProduct, error) {
	var (
		p       core.StoredProduct
		id      pgtype.UUID
		barcode pgtype.Text
		price   pgtype.Numeric
		updated time.Time
	)

	err := row.Scan(
		&id,
		&p.Code,
		&barcode,
		&p.Description,
		&price,
		&p.Store,
		&p.State,
		&p.StockLocal,
		&p.StockOnHand,
		&p.StockMin,
		&p.StockMax,
		&updated,
	)
	if err != nil {
		return core.StoredProduct{}, fmt.Errorf("scan produto: %w", err)
	}

	p.ID = pgUUIDToString(id)
	p.Barcode = fromPgText(barcode)
	p.UpdatedAt = updated
	if p.Price, err = fromPgNumeric(price); err != nil {
		return core.StoredProduct{}, fmt.Errorf("scan produto %s: %w", p.ID, err)
	}
	return p, nil
}
