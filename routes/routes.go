package routes

import (
	"net/http"

	_ "github.com/Alex1231123112/manager/docs"
	"github.com/Alex1231123112/manager/handlers"
	"github.com/Alex1231123112/manager/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers - все обработчики админки.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Dashboard   *handlers.DashboardHandler
	System      *handlers.SystemHandler
	Team        *handlers.TeamHandler
	Member      *handlers.MemberHandler
	Invite      *handlers.InviteHandler
	Player      *handlers.PlayerHandler
	Debt        *handlers.DebtHandler
	Match       *handlers.MatchHandler
	Finance     *handlers.FinanceHandler
	Event       *handlers.EventHandler
	LeagueTable *handlers.LeagueTableHandler
	WebSocket   *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, sessions *middleware.Sessions, teams middleware.TeamLister, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(sessions.Authenticate)

			r.Get("/me", h.Auth.Me)
			r.Post("/team-select", h.Auth.SelectTeam)
			r.Get("/system-settings", h.System.GetSettings)
			r.Put("/system-settings", h.System.UpdateSettings)
			r.Get("/integration/stats", h.System.IntegrationStats)
			r.Get("/integration/events", h.System.IntegrationEvents)

			// Маршруты выбранной команды
			r.Group(func(r chi.Router) {
				r.Use(sessions.RequireTeam(teams))

				r.Get("/dashboard", h.Dashboard.Stats)
				r.Get("/settings", h.Team.GetChatSettings)
				r.Post("/settings", h.Team.UpdateChatSettings)
				r.Post("/teams/logo", h.Team.UploadLogo)
				r.Post("/notify", h.Team.Notify)

				r.Get("/members", h.Member.List)
				r.Patch("/members/{telegramUserID}", h.Member.Update)
				r.Get("/members/{telegramUserID}/attendance", h.Member.Attendance)

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", h.Invite.List)
					r.Post("/", h.Invite.Create)
					r.Delete("/{code}", h.Invite.Revoke)
					r.Get("/{code}/qr", h.Invite.QRCode)
					r.Post("/{code}/email", h.Invite.SendByEmail)
				})

				r.Route("/players", func(r chi.Router) {
					r.Get("/", h.Player.List)
					r.Post("/", h.Player.Create)
					r.Put("/{playerID}", h.Player.Update)
					r.Delete("/{playerID}", h.Player.Delete)
					r.Post("/{playerID}/photo", h.Player.UploadPhoto)
					r.Get("/{playerID}/averages", h.Player.Averages)
				})

				r.Get("/debt", h.Debt.List)
				r.Post("/debt", h.Debt.Set)
				r.Post("/debt/paid/{playerID}", h.Debt.MarkPaid)
				r.Post("/notify-debt", h.Debt.Notify)

				r.Route("/matches", func(r chi.Router) {
					r.Get("/", h.Match.List)
					r.Post("/", h.Match.Create)
					r.Route("/{matchID}", func(r chi.Router) {
						r.Get("/", h.Match.Get)
						r.Put("/", h.Match.Update)
						r.Delete("/", h.Match.Delete)
						r.Post("/result", h.Match.SetResult)
						r.Post("/cancel", h.Match.Cancel)
						r.Get("/attendance", h.Match.GetAttendance)
						r.Put("/attendance", h.Match.SetAttendance)
						r.Get("/stats", h.Match.ListStats)
						r.Post("/stats", h.Match.SaveStats)
						r.Get("/card", h.Match.Card)
						r.Post("/send-to-channel", h.Match.SendToChannel)
					})
				})

				r.Get("/finance", h.Finance.List)
				r.Post("/finance", h.Finance.Create)
				r.Get("/finance/report", h.Finance.Report)
				r.Delete("/finance/{entryID}", h.Finance.Delete)

				r.Get("/events", h.Event.List)
				r.Post("/events", h.Event.Create)
				r.Delete("/events/{eventID}", h.Event.Delete)

				r.Get("/league-table", h.LeagueTable.Get)
				r.Put("/league-table", h.LeagueTable.Replace)

				r.Get("/ws", h.WebSocket.ServeWs)
			})
		})
	})
}
