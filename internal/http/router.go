package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/http/export"
	"github.com/MrJamesThe3rd/stageledger/internal/http/importcsv"
	"github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/matching"
	appmw "github.com/MrJamesThe3rd/stageledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/stageledger/internal/http/project"
	"github.com/MrJamesThe3rd/stageledger/internal/http/report"
	"github.com/MrJamesThe3rd/stageledger/internal/http/status"
	"github.com/MrJamesThe3rd/stageledger/internal/http/transaction"
)

type Options struct {
	AllowedOrigins []string

	// JWTSecret enables bearer-token checks on every /api/v1 route when set.
	JWTSecret string
}

func New(
	opts Options,
	log *zap.Logger,
	statusesV1 *status.Handler,
	projectsV1 *project.Handler,
	ledgerV1 *ledger.Handler,
	transactionsV1 *transaction.Handler,
	importV1 *importcsv.Handler,
	reportsV1 *report.Handler,
	rulesV1 *matching.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appmw.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Confirmation-Secret", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(appmw.BearerAuth([]byte(opts.JWTSecret), log))
		}

		r.Route("/statuses", statusesV1.Routes)

		r.Route("/projects", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			projectsV1.Routes(r)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			ledgerV1.Routes(r)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Route("/import", importV1.Routes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})
		})

		r.Route("/reports", reportsV1.Routes)
		r.Route("/exports", exportV1.Routes)

		r.Route("/description-rules", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			rulesV1.Routes(r)
		})
	})

	return router
}
