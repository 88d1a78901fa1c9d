package http

import (
	"context"
	"net/http"
	"strings"

	"famspend/internal/core"
	"famspend/internal/remote"
)

// Identity headers set by the fronting auth layer.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderFamilyID = "X-Family-ID"
)

type identityKey struct{}

// requireIdentity rejects requests without a user and forwards any bearer
// token to the REST backend client.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := core.Identity{
			UserID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
			UserName: strings.TrimSpace(r.Header.Get(HeaderUserName)),
			FamilyID: strings.TrimSpace(r.Header.Get(HeaderFamilyID)),
		}
		if id.UserID == "" {
			writeErrorCode(w, http.StatusUnauthorized, "unauthenticated", "missing "+HeaderUserID+" header")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
			ctx = remote.WithToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) core.Identity {
	id, _ := ctx.Value(identityKey{}).(core.Identity)
	return id
}
