package httpapi

import "context"

type contextKey struct{ name string }

var (
	requestInfoContextKey = &contextKey{name: "request_info"}
	requestIDContextKey   = &contextKey{name: "request_id"}
)

// RequestInfo is filled in by handlers and read back by middleware once
// the handler returns.
type RequestInfo struct {
	Action string
}

func WithRequestInfo(ctx context.Context) (context.Context, *RequestInfo) {
	info := &RequestInfo{}
	return context.WithValue(ctx, requestInfoContextKey, info), info
}

func setAction(ctx context.Context, action string) {
	if info, ok := ctx.Value(requestInfoContextKey).(*RequestInfo); ok {
		info.Action = action
	}
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
