package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// maxBodySize caps single-product request bodies.
const maxBodySize = 64 << 10

// errInvalidBody prefixes every body decoding failure so MapError can
// recognise it.
var errInvalidBody = errors.New("invalid request body")

var produtoSchema = mustCompile("schemas/produto.json")

func mustCompile(path string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	f, err := schemaFiles.Open(path)
	if err != nil {
		panic(fmt.Sprintf("open schema %s: %v", path, err))
	}
	defer f.Close()

	if err := compiler.AddResource(path, f); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", path, err))
	}
	return compiler.MustCompile(path)
}

// decodeRecord reads a product body, validates it against the produto
// schema and decodes it into a Record.
func decodeRecord(w http.ResponseWriter, r *http.Request) (core.Record, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return core.Record{}, fmt.Errorf("%w: malformed JSON: %v", errInvalidBody, err)
	}

	if err := produtoSchema.Validate(doc); err != nil {
		return core.Record{}, fmt.Errorf("%w: %s", errInvalidBody, schemaMessage(err))
	}

	var rec core.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return rec, nil
}

// schemaMessage flattens a validation error to its leaf causes, one per
// offending field.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := strings.TrimPrefix(e.InstanceLocation, "/")
			if loc == "" {
				msgs = append(msgs, e.Message)
			} else {
				msgs = append(msgs, loc+": "+e.Message)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
