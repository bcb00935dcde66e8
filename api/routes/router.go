package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aakashmid/Ecommerce-chatbot/api/controllers"
	"github.com/Aakashmid/Ecommerce-chatbot/api/middleware"
	authsvc "github.com/Aakashmid/Ecommerce-chatbot/internal/auth"
	cartsvc "github.com/Aakashmid/Ecommerce-chatbot/internal/cart"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/catalog"
	chatsvc "github.com/Aakashmid/Ecommerce-chatbot/internal/chatbot"
	ordersvc "github.com/Aakashmid/Ecommerce-chatbot/internal/orders"
	usersvc "github.com/Aakashmid/Ecommerce-chatbot/internal/users"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/logger"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	AuthService    authsvc.Service
	UserService    usersvc.Service
	CatalogService catalog.Service
	CartService    cartsvc.Service
	OrderService   ordersvc.Service
	ChatService    chatsvc.Service
	ChatRelay      *chatsvc.Relay
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.Register(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.Login(deps.AuthService, logg))
		r.Post("/refresh", controllers.Refresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Post("/logout", controllers.Logout(deps.AuthService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
		r.Get("/{idOrSlug}", controllers.GetProduct(deps.CatalogService, logg))
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", controllers.ListCategories(deps.CatalogService, logg))
		r.Get("/{idOrSlug}", controllers.GetCategory(deps.CatalogService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/api/v1/users/me", func(r chi.Router) {
			r.Get("/", controllers.Me(deps.UserService, logg))
			r.Patch("/", controllers.UpdateMe(deps.UserService, logg))
		})

		r.Route("/api/v1/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(deps.UserService, logg))
			r.Post("/", controllers.CreateAddress(deps.UserService, logg))
			r.Get("/{addressID}", controllers.GetAddress(deps.UserService, logg))
			r.Patch("/{addressID}", controllers.UpdateAddress(deps.UserService, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(deps.UserService, logg))
		})

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.CartService, logg))
			r.Post("/items", controllers.AddToCart(deps.CartService, logg))
			r.Patch("/items/{itemID}", controllers.UpdateCartItem(deps.CartService, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(deps.CartService, logg))
			r.Delete("/", controllers.ClearCart(deps.CartService, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
			r.Get("/", controllers.ListOrders(deps.OrderService, logg))
			r.Get("/{orderRef}", controllers.GetOrder(deps.OrderService, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.OrderService, logg))
		})

		r.Route("/api/v1/chatbot/sessions", func(r chi.Router) {
			r.Post("/", controllers.CreateChatSession(deps.ChatService, logg))
			r.Get("/", controllers.ListChatSessions(deps.ChatService, logg))
			r.Get("/{sessionID}", controllers.GetChatSession(deps.ChatService, logg))
			r.Post("/{sessionID}/end", controllers.EndChatSession(deps.ChatService, logg))
			r.Get("/{sessionID}/messages", controllers.ListChatMessages(deps.ChatService, logg))
			r.Post("/{sessionID}/messages", controllers.PostChatMessage(deps.ChatService, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireAdmin(logg))

		r.Route("/api/admin/v1", func(r chi.Router) {
			r.Post("/products", controllers.CreateProduct(deps.CatalogService, logg))
			r.Patch("/products/{productID}", controllers.UpdateProduct(deps.CatalogService, logg))
			r.Delete("/products/{productID}", controllers.DeleteProduct(deps.CatalogService, logg))

			r.Post("/categories", controllers.CreateCategory(deps.CatalogService, logg))
			r.Patch("/categories/{categoryID}", controllers.UpdateCategory(deps.CatalogService, logg))
			r.Delete("/categories/{categoryID}", controllers.DeleteCategory(deps.CatalogService, logg))

			r.Get("/users", controllers.ListUsers(deps.UserService, logg))
		})
	})

	// The relay authenticates on its own: browser websocket clients cannot
	// set an Authorization header, so the token may arrive as a query param.
	if deps.ChatRelay != nil {
		r.Get("/ws/chatbot/message/{sessionID}", deps.ChatRelay.Handle)
	}

	return r
}
