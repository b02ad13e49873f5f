package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/vendorverse/api/responses"
	pkgAuth "github.com/angelmondragon/vendorverse/pkg/auth"
	"github.com/angelmondragon/vendorverse/pkg/config"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

// ClientTokenHeader is the alternate header carrying the client token.
const ClientTokenHeader = "X-VV-Client-Token"

// ClientToken validates the client token and seeds the request context with the
// client id that scopes session and cart state.
func ClientToken(cfg config.ClientTokenConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing client token"))
				return
			}

			claims, err := pkgAuth.ParseClientToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid client token"))
				return
			}

			ctx := WithClientID(r.Context(), claims.ClientID())
			if logg != nil {
				ctx = logg.WithClientID(ctx, claims.ClientID())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return strings.TrimSpace(r.Header.Get(ClientTokenHeader))
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
