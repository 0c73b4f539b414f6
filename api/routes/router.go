package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	metricsHandler http.Handler,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	fallback, err := enums.ParseLanguage(cfg.Checkout.DefaultLanguage)
	if err != nil {
		fallback = enums.LanguageArabic
	}

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Language(fallback, logg))

		r.Post("/session", controllers.StartCheckout(checkoutService, logg))
		r.Get("/session", controllers.GetCheckout(checkoutService, logg))
		r.Delete("/session", controllers.AbandonCheckout(checkoutService, logg))
		r.Put("/shipping", controllers.UpdateShipping(checkoutService, logg))
		r.Put("/delivery", controllers.SelectDelivery(checkoutService, logg))
		r.Put("/payment", controllers.SelectPayment(checkoutService, logg))
		r.Post("/advance", controllers.AdvanceCheckout(checkoutService, logg))
		r.Post("/retreat", controllers.RetreatCheckout(checkoutService, logg))
		r.Post("/goto/{step}", controllers.JumpToStep(checkoutService, logg))
		r.Post("/coupon", controllers.ApplyCoupon(checkoutService, logg))
		r.Delete("/coupon", controllers.RemoveCoupon(checkoutService, logg))
		r.With(middleware.Idempotency(idempotencyStore, logg)).
			Post("/orders", controllers.PlaceOrder(checkoutService, logg))
	})

	return r
}
