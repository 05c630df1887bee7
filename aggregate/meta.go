package aggregate

import "context"

type ctxKey int

const (
	metaKey ctxKey = iota
	causationIDKey
	correlationIDKey
)

// CtxWithMeta returns ctx carrying meta data that Append stores with every event
func CtxWithMeta(ctx context.Context, meta map[string]string) context.Context {
	return context.WithValue(ctx, metaKey, meta)
}

// CtxWithCausationID returns ctx carrying the id of the event that caused
// the events being appended
func CtxWithCausationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, causationIDKey, id)
}

// CtxWithCorrelationID returns ctx carrying the correlation id for the events being appended
func CtxWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func metaFromCtx(ctx context.Context) map[string]string {
	m, _ := ctx.Value(metaKey).(map[string]string)

	return m
}

func causationIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(causationIDKey).(string)

	return id
}

func correlationIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)

	return id
}
