package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/app"
	"github.com/ayusman/drivethru/internal/capture"
	"github.com/ayusman/drivethru/internal/config"
	"github.com/ayusman/drivethru/internal/deals"
	"github.com/ayusman/drivethru/internal/detector"
	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/gesture"
	"github.com/ayusman/drivethru/internal/plugin"
	"github.com/ayusman/drivethru/internal/server"
	"github.com/ayusman/drivethru/internal/server/api"
	"github.com/ayusman/drivethru/internal/store"
	"github.com/ayusman/drivethru/internal/store/redisstore"
	"github.com/ayusman/drivethru/internal/tray"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("drivethru failed")
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	scores, closeScores, err := scoreStore(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer closeScores()

	menu := deals.DefaultMenu()
	if cfg.Overrides != nil && cfg.Overrides.Menu != "" {
		if menu, err = deals.LoadMenu(cfg.Overrides.Menu); err != nil {
			return err
		}
	}

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("plugin discovery failed")
	}
	hooks := plugin.NewHooks(plugins, plugin.NewExecutor(plugin.DefaultTimeout), plugin.DefaultQueueSize)
	defer hooks.Close()

	recorder := store.NewRoundRecorder(st, cfg.Player)
	defer recorder.Close()

	var t *tray.Tray
	observers := game.Observers{recorder, hooks}
	if cfg.Tray {
		t = tray.New(cfg.Mode)
		observers = append(observers, t)
	}

	trackerCfg := detector.DefaultConfig()
	trackerCfg.MaxHands = game.DefaultProfiles().For(cfg.Mode).Hands
	tracker, err := detector.NewMediaPipeTracker(trackerCfg)
	if err != nil {
		return err
	}

	session := app.New(app.Config{
		Camera:    capture.NewCamera(cfg.Camera),
		Tracker:   tracker,
		Extractor: cfg.Extractor(),
		Game: game.Config{
			Deals:    deals.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())), menu),
			Scores:   scores,
			Observer: observers,
			Profiles: cfg.Overrides.Profiles(),
		},
		Mode:        cfg.Mode,
		Wink:        gesture.DefaultWinkConfig(),
		FrameBudget: cfg.FrameBudget,
		Preview:     true,
	})
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	srv := server.New(server.Config{
		StaticDir: findWebDir(),
		Game:      session,
		Store:     st,
		Scores:    scores,
		Player:    cfg.Player,

		AllowedOrigins: cfg.CORSOrigins,
	})
	defer srv.Close()

	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("mode", cfg.Mode.String()).Str("player", cfg.Player).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if t != nil {
		wireTray(ctx, t, session, cancel, browserURL(cfg.Addr))
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray must own the main goroutine on macOS.
		t.Run()
		cancel()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return httpServer.Shutdown(shutdownCtx)
}

// scoreBackend records high scores for the game and lists them for the API.
type scoreBackend interface {
	game.ScoreStore
	api.Scoreboard
}

// scoreStore picks the high score backend.
func scoreStore(ctx context.Context, cfg *config.Config, st *store.Store) (scoreBackend, func(), error) {
	if cfg.ScoreBackend != config.BackendRedis {
		return store.NewScoreKeeper(st, cfg.Player), func() {}, nil
	}

	rs, err := redisstore.New(ctx, redisstore.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Player)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis score backend")
	return rs, func() { rs.Close() }, nil
}

func wireTray(ctx context.Context, t *tray.Tray, s *app.Session, quit func(), url string) {
	t.OnMode(func(m game.Mode) {
		if err := s.SetMode(ctx, m); err != nil {
			log.Warn().Err(err).Str("mode", m.String()).Msg("mode switch failed")
		}
	})
	t.OnPause(func(paused bool) {
		var err error
		if paused {
			_, err = s.Pause(ctx)
		} else {
			_, err = s.Resume(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Bool("paused", paused).Msg("pause toggle failed")
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
		}
	})
	t.OnQuit(quit)
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.drivethru/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".drivethru", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
