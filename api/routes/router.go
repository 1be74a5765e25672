package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/agricorus/agricorus-backend/api/controllers"
	"github.com/agricorus/agricorus-backend/api/middleware"
	"github.com/agricorus/agricorus-backend/internal/auth"
	"github.com/agricorus/agricorus-backend/internal/disputes"
	"github.com/agricorus/agricorus-backend/internal/lands"
	"github.com/agricorus/agricorus-backend/internal/leasepayments"
	"github.com/agricorus/agricorus-backend/internal/leasing"
	"github.com/agricorus/agricorus-backend/internal/notifications"
	"github.com/agricorus/agricorus-backend/internal/payoutmethods"
	"github.com/agricorus/agricorus-backend/internal/payouts"
	"github.com/agricorus/agricorus-backend/pkg/auth/session"
	"github.com/agricorus/agricorus-backend/pkg/config"
	"github.com/agricorus/agricorus-backend/pkg/logger"
	"github.com/agricorus/agricorus-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles the domain services the router exposes.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.AdminRegisterService
	Lands         lands.Service
	Leasing       leasing.Service
	Payments      leasepayments.Service
	Payouts       payouts.Service
	PayoutMethods payoutmethods.Service
	Disputes      disputes.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(svcs.AdminRegister, svcs.Auth, cfg, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(httprate.LimitByIP(120, time.Minute))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/lands", func(r chi.Router) {
			r.Get("/", controllers.ListLands(svcs.Lands, logg))
			r.Post("/", controllers.SubmitLand(svcs.Lands, logg))
			r.Get("/mine", controllers.ListMyLands(svcs.Lands, logg))
			r.Get("/{landId}", controllers.GetLand(svcs.Lands, logg))
			r.Patch("/{landId}", controllers.UpdateLand(svcs.Lands, logg))
			r.Post("/{landId}/deactivate", controllers.DeactivateLand(svcs.Lands, logg))
		})

		r.Route("/v1/lease-requests", func(r chi.Router) {
			r.Post("/", controllers.CreateLeaseRequest(svcs.Leasing, logg))
			r.Get("/mine", controllers.ListMyLeaseRequests(svcs.Leasing, logg))
			r.Get("/incoming", controllers.ListIncomingLeaseRequests(svcs.Leasing, logg))
			r.Post("/{requestId}/respond", controllers.RespondLeaseRequest(svcs.Leasing, logg))
			r.Post("/{requestId}/cancel", controllers.CancelLeaseRequest(svcs.Leasing, logg))
		})

		r.Route("/v1/leases", func(r chi.Router) {
			r.Get("/", controllers.ListLeases(svcs.Leasing, logg))
			r.Post("/payments/confirm", controllers.ConfirmLeasePayment(svcs.Payments, logg))
			r.Get("/{leaseId}", controllers.GetLease(svcs.Leasing, logg))
			r.Get("/{leaseId}/schedule", controllers.GetLeaseSchedule(svcs.Payments, logg))
			r.Get("/{leaseId}/payments", controllers.ListLeasePayments(svcs.Payments, logg))
			r.Post("/{leaseId}/payments/initiate", controllers.InitiateLeasePayment(svcs.Payments, logg))
		})

		r.Route("/v1/payouts", func(r chi.Router) {
			r.Post("/", controllers.RequestPayout(svcs.Payouts, logg))
			r.Get("/mine", controllers.ListMyPayouts(svcs.Payouts, logg))
			r.Get("/{requestId}", controllers.GetPayout(svcs.Payouts, logg))
			r.Post("/{requestId}/cancel", controllers.CancelPayout(svcs.Payouts, logg))
		})

		r.Route("/v1/payout-methods", func(r chi.Router) {
			r.Get("/", controllers.ListPayoutMethods(svcs.PayoutMethods, logg))
			r.Post("/", controllers.CreatePayoutMethod(svcs.PayoutMethods, logg))
			r.Patch("/{methodId}", controllers.UpdatePayoutMethod(svcs.PayoutMethods, logg))
			r.Delete("/{methodId}", controllers.DeletePayoutMethod(svcs.PayoutMethods, logg))
			r.Post("/{methodId}/default", controllers.SetDefaultPayoutMethod(svcs.PayoutMethods, logg))
		})

		r.Route("/v1/disputes", func(r chi.Router) {
			r.Post("/", controllers.RaiseDispute(svcs.Disputes, logg))
			r.Get("/mine", controllers.ListMyDisputes(svcs.Disputes, logg))
			r.Get("/{disputeId}", controllers.GetDispute(svcs.Disputes, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(httprate.LimitByIP(120, time.Minute))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/lands", func(r chi.Router) {
			r.Get("/", controllers.AdminListLands(svcs.Lands, logg))
			r.Post("/{landId}/approve", controllers.AdminApproveLand(svcs.Lands, logg))
			r.Post("/{landId}/reject", controllers.AdminRejectLand(svcs.Lands, logg))
		})

		r.Route("/v1/payouts", func(r chi.Router) {
			r.Get("/", controllers.AdminListPayouts(svcs.Payouts, logg))
			r.Post("/{requestId}/review", controllers.AdminReviewPayout(svcs.Payouts, logg))
			r.Post("/{requestId}/mark-paid", controllers.AdminMarkPayoutPaid(svcs.Payouts, logg))
		})

		r.Route("/v1/disputes", func(r chi.Router) {
			r.Get("/", controllers.AdminListDisputes(svcs.Disputes, logg))
			r.Post("/{disputeId}/in-review", controllers.AdminDisputeInReview(svcs.Disputes, logg))
			r.Post("/{disputeId}/resolve", controllers.AdminResolveDispute(svcs.Disputes, logg))
		})

		r.Route("/v1/leases", func(r chi.Router) {
			r.Post("/{leaseId}/terminate", controllers.AdminTerminateLease(svcs.Leasing, logg))
		})
	})

	return r
}
