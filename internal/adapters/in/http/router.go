// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mintx/internal/adapters/in/http/handlers"
	"mintx/internal/adapters/in/http/middleware"
)

// RouterDeps collects the handlers injected from the DI container.
type RouterDeps struct {
	Mint          *handlers.MintHandler
	Wallet        *handlers.WalletHandler
	Logger        *zap.Logger
	AllowedOrigin string
}

// NewRouter は /healthz と /v1 の API を組み立てます。
// チェーン順: CORS → Recover → RequestID → RequestLogger → handler
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(deps.AllowedOrigin))
	r.Use(middleware.Recover(deps.Logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(deps.Logger))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		if deps.Mint != nil {
			deps.Mint.Routes(r)
		}
		if deps.Wallet != nil {
			r.Get("/wallet", deps.Wallet.Get)
		}
	})
	return r
}
