package shared

import "context"

type actorKey struct{}

// SystemActor is recorded when no user is attached to the request
const SystemActor = "system"

// WithActor attaches the acting user id to ctx
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting user id, or SystemActor
func ActorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return SystemActor
}
