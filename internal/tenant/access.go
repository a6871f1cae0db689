package tenant

import "net/http"

// Access hands out data-access handles bound to the requesting tenant's
// namespace. H is whatever the storage layer scopes: a schema-bound DB
// session, a repository built on one, a key prefix.
type Access[H any] struct {
	factory func(namespace string) H
}

func NewAccess[H any](factory func(namespace string) H) *Access[H] {
	return &Access[H]{factory: factory}
}

// ForRequest resolves the tenant and only then builds the handle, so a request
// without a tenant never gets one.
func (a *Access[H]) ForRequest(r *http.Request) (H, Context, error) {
	var zero H
	tc, err := Resolve(r.Header)
	if err != nil {
		return zero, Context{}, err
	}
	return a.factory(tc.Namespace), tc, nil
}
