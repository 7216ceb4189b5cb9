package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
)

const (
	actorHeader  = "X-Actor"
	defaultActor = "api"
	maxActorLen  = 128
)

// Actor records who is acting on the request. There is no authentication: the value is
// whatever the caller declares in X-Actor and is only used for the stock ledger and logs.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if len(actor) > maxActorLen {
				actor = actor[:maxActorLen]
			}
			if actor == "" {
				actor = defaultActor
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
