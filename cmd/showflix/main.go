package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/cache"
	"github.com/example/showflix-scheduler/internal/config"
	"github.com/example/showflix-scheduler/internal/export"
	httptransport "github.com/example/showflix-scheduler/internal/http"
	"github.com/example/showflix-scheduler/internal/logging"
	"github.com/example/showflix-scheduler/internal/persistence/sqlite"
	"github.com/example/showflix-scheduler/internal/persistence/sqlite/migration"
)

const memoryCacheEntries = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("showflix API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// app owns the opened stores and the assembled HTTP handler.
type app struct {
	handler http.Handler
	logger  *slog.Logger
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	pool, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	repos := sqlite.NewRepositories(pool)

	store, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := func() time.Time { return time.Now().In(loc) }
	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }

	userRepo := newUserRepositoryAdapter(repos.Users)
	sessionRepo := newSessionRepositoryAdapter(repos.Sessions)
	selectionRepo := newSelectionRepositoryAdapter(repos.Selections)
	timeSlotRepo := newTimeSlotRepositoryAdapter(repos.TimeSlots)
	noteRepo := newNoteRepositoryAdapter(repos.Notes)
	hourRepo := newHourRepositoryAdapter(repos.Hours)
	reservationRepo := newReservationRepositoryAdapter(repos.Reservations)
	workLogRepo := newWorkLogRepositoryAdapter(repos.WorkLogs)

	userService := application.NewUserServiceWithLogger(userRepo, application.HashPassword, application.VerifyPassword, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, []byte(cfg.SessionSecret), logger)
	attendanceService := application.NewAttendanceServiceWithLogger(selectionRepo, userRepo, store, now, logger)
	timeSlotService := application.NewTimeSlotServiceWithLogger(timeSlotRepo, store, logger)
	noteService := application.NewAdminNoteServiceWithLogger(noteRepo, now, logger)
	hourService := application.NewHourTableServiceWithLogger(hourRepo, userRepo, logger)
	reservationService := application.NewReservationServiceWithLogger(reservationRepo, idGenerator, now, export.SlipOptions{
		Secret:   []byte(cfg.SessionSecret),
		FontPath: cfg.PDFFontPath,
	}, logger)
	workLogService := application.NewWorkLogServiceWithLogger(workLogRepo, idGenerator, now, logger)

	if cfg.AdminUserID != "" {
		created, err := userService.EnsureAdministrator(ctx, cfg.AdminUserID, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("bootstrap administrator: %w", err)
		}
		if created {
			logger.Info("administrator account created", "user_id", cfg.AdminUserID)
		}
	}

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Attendance:   httptransport.NewAttendanceHandler(attendanceService, userService, logger),
		TimeSlots:    httptransport.NewTimeSlotHandler(timeSlotService, logger),
		Notes:        httptransport.NewNoteHandler(noteService, logger),
		HourTable:    httptransport.NewHourTableHandler(hourService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		WorkLogs:     httptransport.NewWorkLogHandler(workLogService, logger),
		Sessions:     authService,
		LoginLimiter: httptransport.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst, logger),
		Health:       pool.Ping,
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CORS(cfg.CORSOrigins),
		},
	})
	return a, nil
}

// openCache dials Redis when an address is configured and otherwise keeps
// month data in process memory.
func openCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.CacheTTL, memoryCacheEntries, time.Now), nil
	}
	store, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("using redis cache", "addr", cfg.RedisAddr)
	return store, nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
