package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api"
	"github.com/lengapp/leng-api/config"
	"github.com/lengapp/leng-api/databases"
	"github.com/lengapp/leng-api/notifications"
	"github.com/lengapp/leng-api/payments"
	"github.com/lengapp/leng-api/storage"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   *config.Config
	Client   databases.ClientHelper
	Gate     *api.Gate
	Store    storage.ObjectStore
	Payments payments.Provider
	Notifier notifications.Notifier
	Hub      *PollHub
	Started  time.Time

	dbHelper databases.DatabaseHelper
}

// DB returns the database the app was initialized with
func (a *App) DB() databases.DatabaseHelper {
	return a.dbHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Hub == nil {
		a.Hub = NewPollHub()
	}
	db := a.dbHelper
	pages := databases.NewPageDatabase(db)
	polls := databases.NewPollDatabase(db)
	questions := databases.NewQuestionDatabase(db)
	badges := databases.NewBadgeDatabase(db)
	userBadges := databases.NewUserBadgeDatabase(db)
	subs := databases.NewSubscriptionDatabase(db)
	plans := databases.NewPlanDatabase(db)
	pushTokens := databases.NewPushTokenDatabase(db)
	links := databases.NewShortLinkDatabase(db)
	orders := databases.NewOrderDatabase(db)
	cascade := databases.NewCascade(db)

	health := Health{Client: a.Client, Started: a.Started}
	claim := Claim{Pages: pages}
	page := Page{Pages: pages, Badges: badges, UserBadges: userBadges, Store: a.Store}
	poll := Poll{
		Pages:   pages,
		Polls:   polls,
		Votes:   databases.NewPollVoteDatabase(db),
		Subs:    subs,
		Plans:   plans,
		Tx:      a.Client,
		Cascade: cascade,
		Hub:     a.Hub,
	}
	question := Question{
		Pages:      pages,
		Questions:  questions,
		Answers:    databases.NewAnswerDatabase(db),
		Likes:      databases.NewAnswerLikeDatabase(db),
		Subs:       subs,
		Plans:      plans,
		PushTokens: pushTokens,
		Tx:         a.Client,
		Cascade:    cascade,
		Notifier:   a.Notifier,
	}
	badge := Badge{Badges: badges, UserBadges: userBadges, Pages: pages}
	code := AccessCode{
		Codes:       databases.NewAccessCodeDatabase(db),
		Redemptions: databases.NewCodeRedemptionDatabase(db),
		Plans:       plans,
		Subs:        subs,
		Tx:          a.Client,
	}
	subscription := Subscription{
		Plans:    plans,
		Subs:     subs,
		Sessions: databases.NewUsedSessionDatabase(db),
		Payments: a.Payments,
		Tx:       a.Client,
	}
	agency := Agency{Agencies: databases.NewAgencyDatabase(db), Pages: pages, Notifier: a.Notifier}
	link := ShortLink{Links: links, Pages: pages, Subs: subs, Plans: plans}
	document := Document{Documents: databases.NewDocumentDatabase(db)}
	order := Order{Orders: orders, Pages: pages, PushTokens: pushTokens, Payments: a.Payments, Notifier: a.Notifier}
	push := Push{Tokens: pushTokens, Pages: pages, Pusher: a.Notifier.Pusher}
	upload := Upload{Pages: pages, Store: a.Store, Folder: a.Config.Cloudinary.Folder}
	admin := Admin{
		Pages:      pages,
		Subs:       subs,
		Badges:     badges,
		UserBadges: userBadges,
		Polls:      polls,
		Questions:  questions,
		Links:      links,
		Orders:     orders,
	}

	authed := func(h http.HandlerFunc) http.Handler { return a.Gate.Authenticate(h) }
	optional := func(h http.HandlerFunc) http.Handler { return a.Gate.OptionalAuthenticate(h) }

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(NotFoundHandler)

	// healthchex
	r.HandleFunc("/health", health.HealthHandler).Methods("GET")
	r.HandleFunc("/ping", health.PingHandler).Methods("GET")

	r.Handle("/claim", authed(claim.ClaimHandler)).Methods("POST")
	r.Handle("/my-slug", authed(claim.MySlugHandler)).Methods("GET")
	r.Handle("/page", authed(claim.DeletePageHandler)).Methods("DELETE")
	r.Handle("/page", authed(page.UpdatePageHandler)).Methods("PUT")
	r.Handle("/page/vitrin", authed(page.UpdateVitrinHandler)).Methods("PUT")
	r.Handle("/page/{slug}", optional(page.PageHandler)).Methods("GET")

	r.Handle("/polls", authed(poll.CreatePollHandler)).Methods("POST")
	r.Handle("/polls/{slug}", optional(poll.ListPollsHandler)).Methods("GET")
	r.Handle("/polls/{id}/vote", authed(poll.VoteHandler)).Methods("POST")
	r.Handle("/polls/{id}", authed(poll.UpdatePollHandler)).Methods("PATCH")
	r.Handle("/polls/{id}", authed(poll.DeletePollHandler)).Methods("DELETE")
	r.HandleFunc("/ws/polls/{slug}", a.Hub.LiveHandler).Methods("GET")

	r.Handle("/questions", authed(question.CreateQuestionHandler)).Methods("POST")
	r.Handle("/questions/{slug}", optional(question.ListQuestionsHandler)).Methods("GET")
	r.Handle("/questions/{id}/answer", authed(question.AnswerHandler)).Methods("POST")
	r.Handle("/questions/{id}/answers/{answerId}/like", authed(question.LikeHandler)).Methods("POST")
	r.Handle("/questions/{id}/answers/{answerId}", authed(question.DeleteAnswerHandler)).Methods("DELETE")
	r.Handle("/questions/{id}", authed(question.DeleteQuestionHandler)).Methods("DELETE")

	r.HandleFunc("/badges/{slug}", badge.PublicBadgesHandler).Methods("GET")
	r.Handle("/codes/redeem", authed(code.RedeemHandler)).Methods("POST")

	r.HandleFunc("/plans", subscription.ListPlansHandler).Methods("GET")
	r.Handle("/subscription", authed(subscription.MySubscriptionHandler)).Methods("GET")
	r.Handle("/subscription/checkout", authed(subscription.CheckoutHandler)).Methods("POST")
	r.Handle("/subscription/verify", authed(subscription.VerifyHandler)).Methods("POST")

	r.HandleFunc("/agencies/{id}", agency.PublicAgencyHandler).Methods("GET")

	r.Handle("/links", authed(link.CreateLinkHandler)).Methods("POST")
	r.Handle("/links", authed(link.ListLinksHandler)).Methods("GET")
	r.Handle("/links/{code}", authed(link.DeleteLinkHandler)).Methods("DELETE")
	r.HandleFunc("/l/{code}", link.RedirectHandler).Methods("GET")

	r.HandleFunc("/documents", document.ListDocumentsHandler).Methods("GET")
	r.HandleFunc("/documents/{key}", document.DocumentHandler).Methods("GET")

	r.HandleFunc("/orders", order.CreateOrderHandler).Methods("POST")
	r.HandleFunc("/orders/{id}/payment", order.PaymentHandler).Methods("POST")
	r.HandleFunc("/orders/{id}/verify", order.VerifyOrderHandler).Methods("POST")

	r.Handle("/push/tokens", authed(push.RegisterTokenHandler)).Methods("POST")
	r.Handle("/push/tokens", authed(push.DeleteTokenHandler)).Methods("DELETE")

	r.Handle("/upload/presign", authed(upload.PresignHandler)).Methods("POST")
	r.Handle("/upload/confirm", authed(upload.ConfirmHandler)).Methods("POST")

	adm := r.PathPrefix("/admin").Subrouter()
	adm.Use(a.Gate.RequireAdmin)
	adm.HandleFunc("/users", admin.UsersHandler).Methods("GET")
	adm.HandleFunc("/stats", admin.StatsHandler).Methods("GET")
	adm.HandleFunc("/pages/{slug}/suspend", admin.SuspendHandler).Methods("POST")
	adm.HandleFunc("/pages/{slug}/verify", admin.VerifyHandler).Methods("POST")
	adm.HandleFunc("/pages/{slug}", admin.DeletePageHandler).Methods("DELETE")

	adm.HandleFunc("/badges", badge.CreateBadgeHandler).Methods("POST")
	adm.HandleFunc("/badges", badge.ListBadgesHandler).Methods("GET")
	adm.HandleFunc("/badges/{id}", badge.DeleteBadgeHandler).Methods("DELETE")
	adm.HandleFunc("/badges/{id}/grant", badge.GrantBadgeHandler).Methods("POST")
	adm.HandleFunc("/badges/{id}/grant/{slug}", badge.RevokeBadgeHandler).Methods("DELETE")
	adm.HandleFunc("/badges/{id}/grant-all", badge.GrantAllHandler).Methods("POST")

	adm.HandleFunc("/codes", code.CreateCodeHandler).Methods("POST")
	adm.HandleFunc("/codes", code.ListCodesHandler).Methods("GET")
	adm.HandleFunc("/codes/{code}", code.DeleteCodeHandler).Methods("DELETE")

	adm.HandleFunc("/plans", subscription.AdminListPlansHandler).Methods("GET")
	adm.HandleFunc("/plans/{id}", subscription.UpsertPlanHandler).Methods("PUT")
	adm.HandleFunc("/plans/{id}", subscription.DeletePlanHandler).Methods("DELETE")
	adm.HandleFunc("/subscriptions/{uid}", subscription.GrantSubscriptionHandler).Methods("PUT")

	adm.HandleFunc("/agencies", agency.CreateAgencyHandler).Methods("POST")
	adm.HandleFunc("/agencies", agency.ListAgenciesHandler).Methods("GET")
	adm.HandleFunc("/agencies/{id}", agency.DeleteAgencyHandler).Methods("DELETE")
	adm.HandleFunc("/agencies/{id}/members", agency.AddMemberHandler).Methods("POST")
	adm.HandleFunc("/agencies/{id}/members/{slug}", agency.RemoveMemberHandler).Methods("DELETE")

	adm.HandleFunc("/documents/{key}", document.PutDocumentHandler).Methods("PUT")
	adm.HandleFunc("/documents/{key}", document.DeleteDocumentHandler).Methods("DELETE")

	adm.HandleFunc("/orders", order.AdminListOrdersHandler).Methods("GET")
	adm.HandleFunc("/orders/{id}/status", order.AdminOrderStatusHandler).Methods("POST")

	adm.HandleFunc("/push", push.AdminPushHandler).Methods("POST")

	return r
}

// Initialize is invoked by the serve command to connect with the database,
// wire the integrations and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	if err = client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.Client = client
	a.dbHelper = databases.NewDatabase(a.Config, client)
	zap.S().Info("leng-api has connected to the database")

	if err = databases.RequireTransactions(ctx, a.dbHelper); err != nil {
		zap.S().Errorw("database cannot run transactions", "error", err)
		return err
	}

	if err = databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	verifier, err := api.NewTokenVerifier(a.Config.Identity)
	if err != nil {
		return fmt.Errorf("identity verifier: %w", err)
	}
	a.Gate = api.NewGate(ctx, a.Config, verifier)

	if a.Store, err = storage.New(a.Config.Cloudinary); err != nil {
		return err
	}
	a.Payments = payments.New(a.Config.Stripe)
	a.Notifier = notifications.Notifier{
		Mailer: notifications.NewMailer(a.Config.SendGrid),
		Pusher: notifications.NewExpoPusher(),
	}
	a.Hub = NewPollHub()
	a.Started = time.Now()

	zap.S().Infow("integrations",
		"cloudinary", a.Config.Cloudinary.Enabled(),
		"stripe", a.Config.Stripe.Enabled(),
		"sendgrid", a.Config.SendGrid.Enabled())

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close stops the live hub and disconnects from the database
func (a *App) Close(ctx context.Context) error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Client != nil {
		return a.Client.Disconnect(ctx)
	}
	return nil
}
