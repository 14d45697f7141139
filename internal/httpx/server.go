package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"community-portal/internal/auth"
)

// Server wires handlers and middleware into the route tree. Middleware
// functions are injected so tests can swap in a canned identity.
type Server struct {
	Auth     *AuthHandler
	Articles *ArticlesHandler
	Canteen  *CanteenHandler
	Feedback *FeedbackHandler
	Votes    *VotesHandler
	Health   *HealthHandler

	Authenticate func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
}

func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", s.Health.check)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.Auth.register)
		r.Post("/login", s.Auth.login)

		r.Get("/articles", s.Articles.list)
		r.Get("/articles/{id}", s.Articles.get)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Get("/profile", s.Auth.getProfile)
			r.Put("/profile", s.Auth.updateProfile)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate, s.RequireAdmin)
			r.Post("/articles", s.Articles.create)
			r.Put("/articles/{id}", s.Articles.update)
			r.Delete("/articles/{id}", s.Articles.delete)
		})
	})

	r.Route("/canteen", func(r chi.Router) {
		r.Get("/menu", s.Canteen.listMenu)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Post("/order", s.Canteen.createOrder)
			r.Get("/orders", s.Canteen.listMyOrders)
			r.Get("/orders/{id}", s.Canteen.getOrder)
			r.Get("/orders/{id}/status", s.Canteen.getOrderStatus)

			r.Post("/feedback", s.Feedback.create)
			r.Get("/feedbacks", s.Feedback.listMine)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate, s.RequireAdmin)
			r.Get("/menu/all", s.Canteen.listMenuAdmin)
			r.Post("/menu", s.Canteen.createMenuItem)
			r.Put("/menu/{id}", s.Canteen.updateMenuItem)
			r.Delete("/menu/{id}", s.Canteen.deleteMenuItem)

			r.Get("/orders/all", s.Canteen.listAllOrders)
			r.Put("/orders/{id}", s.Canteen.updateOrderStatus)

			r.Get("/users", s.Feedback.listUsers)
			r.Get("/feedback", s.Feedback.listAll)
			r.Get("/feedback/{userId}", s.Feedback.conversation)
			r.Put("/feedback/{id}/status", s.Feedback.updateStatus)
			r.Put("/feedback/{id}/reply", s.Feedback.reply)
			r.Post("/feedback/admin-message", s.Feedback.adminMessage)
		})
	})

	r.Route("/votes", func(r chi.Router) {
		r.Get("/", s.Votes.list)
		r.Get("/{id}", s.Votes.get)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Post("/{id}/vote", s.Votes.cast)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate, s.RequireAdmin)
			r.Post("/", s.Votes.create)
		})
	})

	return r
}

// NewMiddleware builds the production middleware pair from the auth package.
func NewMiddleware(m *auth.Middleware) (authenticate, requireAdmin func(http.Handler) http.Handler) {
	return m.Authenticate, auth.RequireRole(auth.RoleAdmin)
}
