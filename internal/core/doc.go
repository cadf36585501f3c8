// Package core holds the product synchronization logic, independent of HTTP,
// storage engines and spreadsheet formats.
//
// # Pipeline
//
// A batch run flows leaf-first through four pieces:
//
//   - [Record] is the canonical product and its validation rules.
//   - [Extract] turns a raw [Row] into a Record, or an [*ExtractionError].
//   - [Resolver] looks a Record up by its (code, store) key and updates the
//     match or inserts a new product, returning an [Outcome].
//   - [Orchestrator] walks the rows of a [RowSource] in order and folds every
//     result into a [RunSummary].
//
// A row failure never stops a batch. Only a source that cannot produce rows
// (wrapping [ErrSourceUnavailable]) or a cancelled context ends a run early.
//
// # Service
//
// [Service] is what transports use. It clamps list sizes, validates records
// posted over HTTP, bounds concurrent batch runs with a [RunLimiter], and
// stores and publishes every [RunSummary].
//
//	svc := core.NewService(core.Deps{Products: store, Runs: store}, core.Options{})
//	out, err := svc.SyncProduct(ctx, rec)
//
// # Error Handling
//
// Technical errors are mapped to coded user messages with [MapError]:
// DB for storage, VAL for data, SRC for spreadsheets, RUN for batch control.
package core
