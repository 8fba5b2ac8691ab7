package account

import "context"

// Identity is the signed-in operator, as vouched for by the auth provider.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UID != ""
}
