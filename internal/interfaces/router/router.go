package router

import (
	authsvc "greenpulse-backend/internal/application/auth"
	donationsvc "greenpulse-backend/internal/application/donations"
	emailsvc "greenpulse-backend/internal/application/emails"
	healthsvc "greenpulse-backend/internal/application/health"
	"greenpulse-backend/internal/application/notifications"
	projectsvc "greenpulse-backend/internal/application/projects"
	"greenpulse-backend/internal/application/reconcile"
	usersvc "greenpulse-backend/internal/application/user"
	"greenpulse-backend/internal/config"
	"greenpulse-backend/internal/infrastructure/database"
	adminhandler "greenpulse-backend/internal/interfaces/handlers/admin"
	authhandler "greenpulse-backend/internal/interfaces/handlers/auth"
	donationhandler "greenpulse-backend/internal/interfaces/handlers/donations"
	healthhandler "greenpulse-backend/internal/interfaces/handlers/health"
	payhandler "greenpulse-backend/internal/interfaces/handlers/payments"
	projecthandler "greenpulse-backend/internal/interfaces/handlers/projects"
	userhandler "greenpulse-backend/internal/interfaces/handlers/user"
	"greenpulse-backend/internal/middleware"
	"greenpulse-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp opens the database and Redis from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return NewApp(cfg, db, rdb), db, rdb, nil
}

// NewApp wires every route onto already opened stores. Ledger routes are
// only mounted when db is non-nil.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var emailSender emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}

	var donations *donationsvc.Service
	if db != nil {
		donations = &donationsvc.Service{
			DB:       db,
			Notifier: &notifications.FundedNotifier{Rdb: rdb, DB: db, Emails: emailSender},
		}
	}

	// Stripe needs the raw body and no session.
	stripeWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.StripeWebhookSecret}
	if donations != nil {
		stripeWebhook.Donations = donations
	}
	app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)

	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	collector := &healthsvc.Collector{Rdb: rdb, Probes: cfg.HealthProbes}
	if db != nil {
		collector.DB = &healthsvc.GormPinger{DB: db}
		collector.Ledger = db
	}
	hh := &healthhandler.Handlers{Collector: collector, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{UserFinder: userFinder, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db == nil {
		return app
	}

	// Users
	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db, Rdb: rdb, Emails: emailSender}, Config: sessionCfg}
	app.Post("/api/v1/users/create-user", uh.CreateUser)
	ug := app.Group("/api/v1/users", middleware.RequireAuth())
	ug.Get("/view-user", uh.ViewUser)
	ug.Patch("/update-role", middleware.AuthorizePermission(constants.AssignRole), uh.UpdateRole)

	// Projects
	projects := &projectsvc.Service{DB: db, Admins: &authsvc.GormAdminChecker{DB: db}}
	ph := &projecthandler.Handlers{Service: projects}
	pg := app.Group("/api/v1/projects", middleware.RequireAuth())
	pg.Get("/", middleware.AuthorizePermission(constants.ViewProjects), ph.ListProjects)
	pg.Get("/mine", middleware.AuthorizePermission(constants.RequestProject), ph.MyProjects)
	pg.Post("/request-project", middleware.AuthorizePermission(constants.RequestProject), ph.RequestProject)
	pg.Get("/:id", middleware.AuthorizePermission(constants.ViewProjects), ph.GetProject)
	pg.Put("/:id", middleware.AuthorizePermission(constants.RequestProject), ph.UpdateProject)
	pg.Get("/:id/events", middleware.AuthorizePermission(constants.ViewProjects), ph.ProjectEvents)

	// Donations
	dh := &donationhandler.Handlers{
		Service:  donations,
		Stripe:   &payhandler.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		Currency: cfg.DonationCurrency,
	}
	dg := app.Group("/api/v1/donations", middleware.RequireAuth())
	dg.Post("/donate", middleware.AuthorizePermission(constants.Donate), dh.Donate)
	dg.Post("/create-intent", middleware.AuthorizePermission(constants.Donate), dh.CreateIntent)
	dg.Get("/project/:id", middleware.AuthorizePermission(constants.ViewProjects), dh.ProjectDonations)
	dg.Get("/mine", middleware.AuthorizePermission(constants.Donate), dh.MyDonations)

	// Admin
	adh := &adminhandler.Handlers{Projects: projects, Reconcile: &reconcile.Service{DB: db}}
	ag := app.Group("/api/v1/admin", middleware.RequireAuth())
	ag.Patch("/projects/:id/status", middleware.AuthorizePermission(constants.ManageProjects), adh.SetStatus)
	ag.Patch("/projects/:id/funding-goal", middleware.AuthorizePermission(constants.ManageProjects), adh.SetFundingGoal)
	ag.Patch("/projects/:id/funding-correction", middleware.AuthorizePermission(constants.ManageProjects), adh.CorrectFunding)
	ag.Get("/reconcile", middleware.AuthorizePermission(constants.ViewLedger), adh.ReconcileAll)
	ag.Get("/reconcile/:id", middleware.AuthorizePermission(constants.ViewLedger), adh.ReconcileOne)

	return app
}
