package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/vendorverse/api/middleware"
	"github.com/angelmondragon/vendorverse/api/responses"
	"github.com/angelmondragon/vendorverse/internal/storefront"
	pkgAuth "github.com/angelmondragon/vendorverse/pkg/auth"
	"github.com/angelmondragon/vendorverse/pkg/config"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

type clientOpener interface {
	Open(ctx context.Context, clientID string) (*storefront.Client, error)
}

type ClientTokenResponse struct {
	ClientID  string     `json:"client_id"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ClientIssue mints a token for a new browsing client.
func ClientIssue(cfg config.ClientTokenConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		clientID := pkgAuth.NewClientID()
		token, err := pkgAuth.MintClientToken(cfg, now, clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint client token"))
			return
		}

		resp := ClientTokenResponse{ClientID: clientID, Token: token}
		if ttl := cfg.TTL(); ttl > 0 {
			expiresAt := now.Add(ttl)
			resp.ExpiresAt = &expiresAt
		}

		w.Header().Set(middleware.ClientTokenHeader, token)
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func openClient(r *http.Request, svc clientOpener) (*storefront.Client, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "storefront unavailable")
	}
	return svc.Open(r.Context(), middleware.ClientIDFromContext(r.Context()))
}
