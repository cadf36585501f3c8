package logging

import (
	"context"
	"log/slog"
	"time"
)

// Poster is the part of *fluent.Fluent the handler needs.
type Poster interface {
	Post(tag string, message interface{}) error
}

// FluentHandler forwards every record to Fluent Bit as a flat map and then
// passes it on to the wrapped handler. Forwarding errors are dropped so a
// missing collector never breaks local logging.
type FluentHandler struct {
	next   slog.Handler
	client Poster
	tag    string
	attrs  []slog.Attr
	group  string
}

// NewFluentHandler wraps next so records are also posted to client under tag.
func NewFluentHandler(next slog.Handler, client Poster, tag string) *FluentHandler {
	return &FluentHandler{next: next, client: client, tag: tag}
}

func (h *FluentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *FluentHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := make(map[string]interface{}, r.NumAttrs()+len(h.attrs)+3)
	msg["time"] = r.Time.Format(time.RFC3339Nano)
	msg["level"] = r.Level.String()
	msg["msg"] = r.Message

	for _, a := range h.attrs {
		flatten(msg, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(msg, h.group, a)
		return true
	})

	_ = h.client.Post(h.tag, msg)

	return h.next.Handle(ctx, r)
}

func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	clone.next = h.next.WithAttrs(attrs)
	return &clone
}

func (h *FluentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	clone.next = h.next.WithGroup(name)
	return &clone
}

// flatten writes a into m, joining group keys with dots. Values that are not
// plain scalars are stringified so the msgpack encoder never sees them.
func flatten(m map[string]interface{}, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + key
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			flatten(m, key, ga)
		}
	case slog.KindString, slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool:
		m[key] = a.Value.Any()
	default:
		m[key] = a.Value.String()
	}
}
