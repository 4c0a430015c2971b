// Package server wires the agent's stores, engines, and HTTP surface.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/brightday/internal/clone"
	"github.com/dukerupert/brightday/internal/config"
	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/handler"
	"github.com/dukerupert/brightday/internal/middleware"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/push"
	"github.com/dukerupert/brightday/internal/reminder"
	"github.com/dukerupert/brightday/internal/remote"
	"github.com/dukerupert/brightday/internal/schedule"
	"github.com/dukerupert/brightday/internal/store"
	syncengine "github.com/dukerupert/brightday/internal/sync"
	"github.com/dukerupert/brightday/internal/weather"
	ws "github.com/dukerupert/brightday/internal/websocket"
)

type Server struct {
	db         *sql.DB
	hub        *ws.Hub
	engine     *syncengine.Engine
	dispatcher *push.Dispatcher
	scheduleH  *handler.ScheduleHandler
	cloneH     *handler.CloneHandler
	pushH      *handler.PushHandler
	settingsH  *handler.SettingsHandler
	syncH      *handler.SyncHandler
	calendarH  *handler.CalendarHandler
	weatherH   *handler.WeatherHandler
	logger     *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	loc := loadLocation(cfg.Timezone, logger)

	hub := ws.NewHub(logger.With("component", "websocket"))

	scheduleStore := store.NewScheduleStore(db)
	reminderStore := store.NewReminderStore(db)
	settingsStore := store.NewSettingsStore(db)

	remoteClient := remote.NewClient(remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		Token:   cfg.Remote.Token,
	})

	syncLogger := logger.With("component", "sync")
	pushLogger := logger.With("component", "push")

	engine := syncengine.New(scheduleStore, remoteStore(remoteClient), syncLogger, func(date dateutil.Date, status syncengine.Status) {
		hub.Broadcast(ws.SyncStatus(date.String(), string(status)))
	})

	planner := reminder.NewPlanner(reminderStore, loc, logger.With("component", "reminder"))
	scheduleMgr := schedule.NewManager(scheduleStore, settingsStore, planner, engine, logger.With("component", "schedule"))

	// A sync pull that rewrites a date locally must also rebuild that
	// date's reminder chains and refresh any open UI.
	engine.OnLocalChanged(func(date dateutil.Date) {
		scheduleMgr.RecomputeReminders(date)
		hub.Broadcast(ws.ScheduleUpdated(date.String()))
	})

	cloner := clone.New(scheduleMgr, logger.With("component", "clone"))

	pushService := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
	})

	gateway := push.NewStaticGateway(staticSubscription(cfg.Push))
	pushMgr := push.NewManager(gateway, settingsStore, registry(remoteClient), cfg.Push.VAPIDPublicKey, cfg.Push.DeviceName, pushLogger)

	weatherSvc := weather.NewService(weather.Config{
		Latitude:  cfg.Weather.Latitude,
		Longitude: cfg.Weather.Longitude,
		Unit:      cfg.Weather.Unit,
	})

	dispatcher := push.NewDispatcher(pushService, reminderStore, scheduleStore, settingsStore, pushLogger, func(r model.Reminder) {
		hub.Broadcast(ws.ReminderFired(r.Date.String(), r.ActivityID, r.Label))
	})

	return &Server{
		db:         db,
		hub:        hub,
		engine:     engine,
		dispatcher: dispatcher,
		scheduleH:  handler.NewScheduleHandler(scheduleMgr, logger),
		cloneH:     handler.NewCloneHandler(cloner, loc, logger),
		pushH:      handler.NewPushHandler(pushMgr, pushService, logger),
		settingsH:  handler.NewSettingsHandler(settingsStore, logger),
		syncH:      handler.NewSyncHandler(engine, logger),
		calendarH:  handler.NewCalendarHandler(loc, logger),
		weatherH:   handler.NewWeatherHandler(weatherSvc, loc, logger),
		logger:     logger,
	}
}

// Start launches the background loops: the reminder dispatcher and the
// session-start full sync for the given user (empty in guest mode).
func (s *Server) Start(ctx context.Context, userID string) {
	s.dispatcher.Start(ctx)

	if userID != "" {
		go func() {
			syncCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			s.engine.FullSync(syncCtx, userID)
		}()
	}
}

// Stop shuts the background loops down.
func (s *Server) Stop() {
	s.dispatcher.Stop()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/schedules/{date}", s.scheduleH.Get)
	mux.HandleFunc("PUT /api/schedules/{date}", s.scheduleH.Save)
	mux.HandleFunc("DELETE /api/schedules/{date}", s.scheduleH.Delete)
	mux.HandleFunc("POST /api/schedules/{date}/activities/{id}/complete", s.scheduleH.Complete)
	mux.HandleFunc("GET /api/schedules", s.scheduleH.MonthDates)
	mux.HandleFunc("POST /api/schedules/clone", s.cloneH.Clone)

	mux.HandleFunc("GET /api/calendar", s.calendarH.MonthGrid)
	mux.HandleFunc("GET /api/weather", s.weatherH.Get)

	mux.HandleFunc("POST /api/sync", s.syncH.FullSync)
	mux.HandleFunc("POST /api/sync/{date}", s.syncH.SyncDate)

	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/ensure", s.pushH.Ensure)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscription", s.pushH.Unsubscribe)

	mux.HandleFunc("GET /api/settings/notifications", s.settingsH.GetNotificationSettings)
	mux.HandleFunc("PUT /api/settings/notifications", s.settingsH.UpdateNotificationSettings)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var h http.Handler = mux
	h = middleware.Identity(h)
	h = middleware.RequestLogger(s.logger)(h)
	return h
}

func loadLocation(name string, logger *slog.Logger) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, using local", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}

func staticSubscription(p config.Push) *model.PushSubscription {
	if p.Endpoint == "" {
		return nil
	}
	return &model.PushSubscription{
		Endpoint:   p.Endpoint,
		P256dhKey:  p.P256dhKey,
		AuthKey:    p.AuthKey,
		DeviceName: p.DeviceName,
	}
}

// remoteStore keeps the nil-client guest mode intact: a typed nil
// *remote.Client must become a nil interface for the engine's guest
// check to work.
func remoteStore(c *remote.Client) syncengine.RemoteStore {
	if c == nil {
		return nil
	}
	return c
}

func registry(c *remote.Client) push.Registry {
	if c == nil {
		return nil
	}
	return c
}
