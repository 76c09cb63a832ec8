package router

import (
	"net/http"

	"github.com/diancan-pos/api/internal/handler"
	"github.com/diancan-pos/api/internal/service"
	"github.com/diancan-pos/api/internal/state"
	"github.com/diancan-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps holds everything the router needs wired in.
type Deps struct {
	Store      *state.Store
	OrderSvc   *service.OrderService
	MenuSvc    *service.MenuService
	ImageCache handler.ImageCache
	Uploads    handler.Enqueuer
	Hub        *ws.Hub
}

// New creates a Chi router with all application routes wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration. The UI is served from a dev server during
	// development, so allow everything; this API never leaves the device.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route: change events for attached UI sessions
	r.Get("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, w, r)
	})

	viewHandler := handler.NewViewHandler(d.Store)
	r.Route("/view", viewHandler.RegisterRoutes)

	menuHandler := handler.NewMenuHandler(d.MenuSvc, d.Store)
	imageHandler := handler.NewImageHandler(d.ImageCache, d.Uploads, d.Store)
	r.Route("/menu", func(r chi.Router) {
		menuHandler.RegisterRoutes(r)
		r.Post("/{id}/image", imageHandler.Attach)
	})
	r.Route("/images", imageHandler.RegisterRoutes)

	cartHandler := handler.NewCartHandler(d.OrderSvc, d.Store)
	r.Route("/cart", cartHandler.RegisterRoutes)

	orderHandler := handler.NewOrderHandler(d.OrderSvc, d.Store)
	r.Route("/orders", orderHandler.RegisterRoutes)
	r.Route("/trash", orderHandler.RegisterTrashRoutes)

	return r
}
