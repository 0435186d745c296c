package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Verifier           TokenVerifier
	Logger             zerolog.Logger
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Cart      *CartHandler
	Auth      *AuthHandler
	Books     *BookHandler
	Admin     *AdminHandler
	Purchases *PurchaseHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(IdentityMiddleware(cfg.Verifier))
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
		r.With(RequireAuth).Get("/profile", h.Auth.GetProfile)
		r.With(RequireAuth).Put("/profile", h.Auth.UpdateProfile)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Post("/", h.Cart.ModifyCart)
			r.Delete("/", h.Cart.ClearCart)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.Books.ListBooks)
			r.Get("/ranking", h.Books.RankBooks)
			r.Get("/{id}", h.Books.GetBook)
			r.With(RequireAuth).Get("/{id}/read", h.Purchases.ReadBook)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Post("/", h.Books.CreateBook)
				r.Put("/{id}", h.Books.UpdateBook)
				r.Delete("/{id}", h.Books.DeleteBook)
			})
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", h.Books.ListCollections)
			r.Get("/{id}", h.Books.GetCollection)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Post("/", h.Books.CreateCollection)
				r.Put("/{id}", h.Books.UpdateCollection)
				r.Delete("/{id}", h.Books.DeleteCollection)
			})
		})

		r.Route("/purchase", func(r chi.Router) {
			r.Get("/", h.Purchases.CheckPurchase)
			r.Post("/", h.Purchases.Purchase)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/users", h.Admin.ListUsers)
		r.With(middleware.RequestSize(cfg.MaxRequestBodySize)).Patch("/users/{id}", h.Admin.SetBlocked)
		r.Get("/stats", h.Admin.Stats)
		// uploads carry their own size limit
		r.Post("/upload", h.Admin.Upload)
	})

	return otelhttp.NewHandler(r, "bookstore",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
