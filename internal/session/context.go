package session

import "context"

type ctxKey struct{}

type current struct {
	id    string
	state State
}

// WithState attaches the request's session to ctx.
func WithState(ctx context.Context, sid string, state State) context.Context {
	return context.WithValue(ctx, ctxKey{}, current{id: sid, state: state})
}

// FromContext returns the request's session, or the initial state.
func FromContext(ctx context.Context) State {
	if c, ok := ctx.Value(ctxKey{}).(current); ok {
		return c.state
	}
	return Initial()
}

func IDFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(ctxKey{}).(current); ok {
		return c.id
	}
	return ""
}
