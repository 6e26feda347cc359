package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/convene-events/convene/activitypub"
	"github.com/convene-events/convene/internal/httpx"
	"github.com/convene-events/convene/internal/ratelimit"
	"github.com/convene-events/convene/models"
	"github.com/convene-events/convene/social"
	"github.com/convene-events/convene/wellknown"
	"github.com/convene-events/convene/workers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/group"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type ServeCmd struct {
	Addr string `help:"address to listen" default:"127.0.0.1:9999"`

	InboxRate  float64 `help:"inbox requests per second per sender and calendar" default:"5"`
	InboxBurst int     `help:"inbox request burst per sender and calendar" default:"10"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := configureDB(db); err != nil {
		return err
	}

	level := slog.LevelInfo
	if ctx.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	env := &models.Env{
		DB:     db,
		Logger: logger,
	}
	apEnv := func(r *http.Request) *activitypub.Env {
		return &activitypub.Env{Env: env}
	}
	resolver := activitypub.NewResolver(db)
	socialEnv := func(r *http.Request) *social.Env {
		return &social.Env{Env: env, Resolver: resolver}
	}

	inboxLimiter := ratelimit.New(rate.Limit(s.InboxRate), s.InboxBurst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/.well-known", func(r chi.Router) {
		r.Get("/webfinger", httpx.HandlerFunc(apEnv, wellknown.WebfingerShow))
		r.Get("/host-meta", wellknown.HostMetaIndex)
		r.Get("/nodeinfo", httpx.HandlerFunc(apEnv, wellknown.NodeInfoIndex))
	})
	r.Get("/nodeinfo/{version}", httpx.HandlerFunc(apEnv, wellknown.NodeInfoShow))

	r.Get("/users/{name}", httpx.HandlerFunc(apEnv, activitypub.UserShow))

	r.Route("/calendars/{name}", func(r chi.Router) {
		r.Get("/", httpx.HandlerFunc(apEnv, activitypub.CalendarShow))
		r.With(inboxLimiter.Middleware(ratelimit.ByHostAndCalendar)).
			Post("/inbox", httpx.HandlerFunc(apEnv, activitypub.InboxCreate))
		r.Get("/outbox", httpx.HandlerFunc(apEnv, activitypub.Outbox))
		r.Get("/followers", httpx.HandlerFunc(apEnv, activitypub.FollowersIndex))
		r.Get("/editors", httpx.HandlerFunc(apEnv, activitypub.EditorsIndex))
		r.Get("/events/{id:[0-9]+}", httpx.HandlerFunc(apEnv, activitypub.EventShow))
	})

	r.Route("/social/calendars/{name}", func(r chi.Router) {
		r.Post("/follows", httpx.HandlerFunc(socialEnv, social.FollowsCreate))
		r.Delete("/follows", httpx.HandlerFunc(socialEnv, social.FollowsDestroy))
		r.Post("/shares", httpx.HandlerFunc(socialEnv, social.SharesCreate))
		r.Delete("/shares", httpx.HandlerFunc(socialEnv, social.SharesDestroy))
	})

	r.Get("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "User-agent: *\nDisallow: /")
	})

	svr := &http.Server{
		Addr:         s.Addr,
		Handler:      r,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	g := group.New(context.Background())
	g.Add(func(ctx context.Context) error {
		logger.Info("listening", "addr", svr.Addr)
		go func() {
			<-ctx.Done()
			svr.Shutdown(context.Background())
		}()
		return svr.ListenAndServe()
	})
	g.Add(workers.NewDeliveryWorker(db, logger))
	g.Add(workers.NewInboxWorker(db, logger))
	return g.Wait()
}
