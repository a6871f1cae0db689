// Package tenant resolves the tenant a request acts for and the storage
// namespace that tenant's data lives in.
package tenant

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

const (
	HeaderTenantID     = "x-tenant-id"
	HeaderTenantSchema = "x-tenant-schema"
	HeaderUserID       = "x-user-id"

	NamespacePrefix = "tenant_"

	// MaxNamespaceLength is the Postgres identifier limit; longer names are
	// silently truncated by the server, which would break injectivity.
	MaxNamespaceLength = 63
)

var ErrMissingTenantContext = errors.New("missing tenant context")

// Context identifies the tenant of a single request. It is never persisted.
type Context struct {
	TenantID  string
	Namespace string
}

// DeriveNamespace maps a tenant identifier to its schema name.
//
// Lower-case ASCII letters and digits are kept, every other byte becomes "_"
// followed by two hex digits. Because "_" itself is escaped, the mapping is
// reversible and therefore collision free. Encodings that would exceed
// MaxNamespaceLength fall back to "tenant__" plus a SHA-256 prefix; a direct
// encoding can never contain "__", so the two forms cannot meet.
func DeriveNamespace(tenantID string) string {
	const hexDigits = "0123456789abcdef"

	var b strings.Builder
	b.Grow(len(NamespacePrefix) + len(tenantID)*3)
	b.WriteString(NamespacePrefix)
	for i := 0; i < len(tenantID); i++ {
		c := tenantID[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}

	if b.Len() <= MaxNamespaceLength {
		return b.String()
	}

	sum := sha256.Sum256([]byte(tenantID))
	hashed := NamespacePrefix + "_" + hex.EncodeToString(sum[:])
	return hashed[:MaxNamespaceLength]
}

// Resolve reads the tenant identifier from request headers. It performs no
// authentication; upstream identity middleware is trusted to have set it.
func Resolve(h http.Header) (Context, error) {
	tenantID := strings.TrimSpace(h.Get(HeaderTenantID))
	if tenantID == "" {
		return Context{}, ErrMissingTenantContext
	}
	return Context{
		TenantID:  tenantID,
		Namespace: DeriveNamespace(tenantID),
	}, nil
}

// UserID returns the optional acting user identifier.
func UserID(h http.Header) string {
	return strings.TrimSpace(h.Get(HeaderUserID))
}
