package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// RouterConfig wires handlers into the route table. Nil handlers leave their
// routes unregistered.
type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Attendance   *AttendanceHandler
	TimeSlots    *TimeSlotHandler
	Notes        *NoteHandler
	HourTable    *HourTableHandler
	Reservations *ReservationHandler
	WorkLogs     *WorkLogHandler

	Sessions     SessionValidator
	LoginLimiter *RateLimiter
	// Health reports whether backing stores are reachable.
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// datePrefixes lists the two mount points of the calendar API.
var datePrefixes = []string{"/api/dates", "/api/schedule/dates"}

var hourTablePrefixes = []string{"/api/admin", "/api/schedule-summary"}

var reservationPrefixes = []string{"/api/schedule-special", "/api/admin/special"}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: localizedStatusMessage(http.StatusMethodNotAllowed)})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		responder.loggerFor(r.Context()).ErrorContext(r.Context(), "handler panicked", "panic", v)
		responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}

	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	})

	var limit Middleware
	if cfg.LoginLimiter != nil {
		limit = cfg.LoginLimiter.Limit
	}
	session := Chain(RequireSession(cfg.Sessions, logger))
	admin := Chain(RequireSession(cfg.Sessions, logger), RequireAdmin(logger))

	if cfg.Auth != nil {
		login := Chain(limit)(cfg.Auth.Login)
		router.POST("/auth/login", login)
		router.POST("/login", login)
		router.POST("/auth/refresh", Chain(limit)(cfg.Auth.Refresh))
		router.POST("/logout", cfg.Auth.Logout)
		router.POST("/auth/logout", cfg.Auth.Logout)
	}

	if cfg.Users != nil {
		router.GET("/api/user/info", session(cfg.Users.Info))
		router.PUT("/api/user/password", session(cfg.Users.ChangeOwnPassword))
		router.PUT("/api/user/phone", session(cfg.Users.UpdateOwnPhone))

		router.GET("/api/admin/users", admin(cfg.Users.List))
		router.GET("/api/admin/actors", admin(cfg.Users.Actors))
		router.POST("/api/admin/users", admin(cfg.Users.Create))
		router.PUT("/api/admin/users/:userid", admin(cfg.Users.Update))
		router.DELETE("/api/admin/users/:userid", admin(cfg.Users.Delete))
		router.PUT("/api/admin/users/:userid/password", admin(cfg.Users.ChangePassword))
	}

	if cfg.Attendance != nil {
		for _, prefix := range datePrefixes {
			router.GET(prefix+"/month", session(cfg.Attendance.MonthData))
			router.POST(prefix+"/save", session(cfg.Attendance.SaveSelections))
			router.DELETE(prefix, session(cfg.Attendance.DeleteOwnSelection))
			router.POST(prefix+"/add-user", admin(cfg.Attendance.AddUser))
			router.DELETE(prefix+"/selection", admin(cfg.Attendance.RemoveUser))
			router.POST(prefix+"/roles/save", admin(cfg.Attendance.SaveRoles))
			router.GET(prefix+"/roles", session(cfg.Attendance.Roles))
			router.GET(prefix+"/users", admin(cfg.Attendance.Users))
		}
		router.GET("/api/schedule/calendar", session(cfg.Attendance.Calendar))
		router.GET("/api/admin/monthly-summary", admin(cfg.Attendance.MonthlySummary))
	}

	if cfg.TimeSlots != nil {
		for _, prefix := range datePrefixes {
			router.GET(prefix+"/time-slots", session(cfg.TimeSlots.Get))
			router.POST(prefix+"/time-slots/save", admin(cfg.TimeSlots.Save))
			router.POST(prefix+"/time-slots/confirm", admin(cfg.TimeSlots.Confirm))
			router.POST(prefix+"/confirm", admin(cfg.TimeSlots.Confirm))
		}
	}

	if cfg.Notes != nil {
		for _, prefix := range datePrefixes {
			router.GET(prefix+"/admin-note", session(cfg.Notes.Get))
			router.POST(prefix+"/admin-note", admin(cfg.Notes.Save))
		}
	}

	if cfg.HourTable != nil {
		for _, prefix := range hourTablePrefixes {
			router.GET(prefix+"/schedule-table", admin(cfg.HourTable.Table))
			router.GET(prefix+"/schedule-table/export", admin(cfg.HourTable.Export))
			router.POST(prefix+"/save-schedule", admin(cfg.HourTable.Save))
			router.POST(prefix+"/save-all-schedules", admin(cfg.HourTable.SaveAll))
			router.DELETE(prefix+"/delete-schedule", admin(cfg.HourTable.Delete))
			router.POST(prefix+"/update-daily-remarks", admin(cfg.HourTable.UpdateDailyRemarks))
		}
		router.GET("/api/user/monthly-stats", session(cfg.HourTable.MyStats))
		router.GET("/api/admin/users/:userid/monthly-stats", admin(cfg.HourTable.UserStats))
	}

	if cfg.Reservations != nil {
		for _, prefix := range reservationPrefixes {
			registerReservationRoutes(router, prefix, cfg.Reservations, session, admin)
		}
	}

	if cfg.WorkLogs != nil {
		router.GET("/api/work-logs", admin(cfg.WorkLogs.List))
		router.POST("/api/work-logs/save-workLog", admin(cfg.WorkLogs.Create))
		router.PUT("/api/work-logs/:id", admin(cfg.WorkLogs.Update))
		router.DELETE("/api/work-logs/:id", admin(cfg.WorkLogs.Delete))
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// registerReservationRoutes mounts the reservation board under prefix. Static
// sub-paths share a segment with :id, so they are dispatched by name.
func registerReservationRoutes(router *httprouter.Router, prefix string, h *ReservationHandler, session, admin Middleware) {
	router.GET(prefix, session(h.List))
	router.POST(prefix, admin(h.Create))
	router.PUT(prefix+"/:id", admin(h.Update))
	router.DELETE(prefix+"/:id", admin(h.Delete))

	router.GET(prefix+"/:id", session(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("id") {
		case "paged":
			h.Page(w, r, ps)
		case "search":
			h.Search(w, r, ps)
		case "statistics":
			h.Statistics(w, r, ps)
		case "export":
			h.Export(w, r, ps)
		case "verify":
			h.VerifySlip(w, r, ps)
		default:
			h.Get(w, r, ps)
		}
	}))
	router.GET(prefix+"/:id/:sub", session(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch {
		case ps.ByName("id") == "status":
			h.ByStatus(w, r, httprouter.Params{{Key: "status", Value: ps.ByName("sub")}})
		case ps.ByName("sub") == "slip":
			h.Slip(w, r, ps)
		default:
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
		}
	}))

	router.PATCH(prefix+"/:id", admin(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") != "batch-update" {
			h.responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: localizedStatusMessage(http.StatusMethodNotAllowed)})
			return
		}
		h.BatchUpdate(w, r, ps)
	}))
	router.PATCH(prefix+"/:id/:sub", admin(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("sub") {
		case "highlight":
			h.SetHighlight(w, r, ps)
		case "status":
			h.SetStatus(w, r, ps)
		default:
			h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
		}
	}))
}

type healthResponse struct {
	Status string `json:"status"`
}
