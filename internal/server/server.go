// Package server orchestrates all components: channel client, skill registry,
// dispatcher, manifest broadcaster, and the HTTP binding.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/emberline/skillbus/internal/config"
	"github.com/emberline/skillbus/internal/httpapi"
	"github.com/emberline/skillbus/pkg/access"
	"github.com/emberline/skillbus/pkg/bootstrap"
	"github.com/emberline/skillbus/pkg/commsutil"
	"github.com/emberline/skillbus/pkg/dispatcher"
	"github.com/emberline/skillbus/pkg/llm"
	"github.com/emberline/skillbus/pkg/manifest"
	"github.com/emberline/skillbus/pkg/ratelimit"
	"github.com/emberline/skillbus/pkg/skills"
)

const logPrefix = "server:server"

// Server is the skillbus node orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	httpServer *http.Server
	listener   *Listener
}

// Run starts the node, blocks until shutdown signal, then cleans up.
func Run() error {
	var logLevel slog.Level
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("%s - invalid config: %w", logPrefix, err)
	}

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting skillbus node %s", logPrefix, cfg.NodeName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Load optional node profile and extend the vocabulary
	profile, err := bootstrap.LoadProfile(cfg.ProfileFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load node profile: %w", logPrefix, err)
	}
	if profile != nil {
		entries := make([]skills.VocabEntry, 0, len(profile.Emotions))
		for _, emo := range profile.Emotions {
			entries = append(entries, skills.VocabEntry{
				Name:      emo.Name,
				Keywords:  emo.Keywords,
				Reflect:   emo.Reflect,
				Reframe:   emo.Reframe,
				Grounding: emo.Grounding,
			})
		}
		if err := skills.ExtendVocabulary(entries); err != nil {
			return fmt.Errorf("%s - failed to extend vocabulary: %w", logPrefix, err)
		}
		slog.Info(fmt.Sprintf("%s - Applied node profile %s with %d vocabulary entries", logPrefix, profile.Name, len(entries)))
	}

	// Step 2: Build the skill catalog and registry. The nil check stays on
	// the concrete type; a typed nil inside the interface would dodge the
	// handlers' fallback.
	var bridge llm.Completer
	if client := llm.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel); client != nil {
		bridge = client
	} else {
		slog.Info(fmt.Sprintf("%s - LLM bridge disabled, handlers use template phrasing", logPrefix))
	}
	catalog := skills.BuildCatalog(skills.CatalogParams{Prefix: cfg.SubjectPrefix, LLM: bridge})
	reg, err := skills.NewRegistry(catalog)
	if err != nil {
		return fmt.Errorf("%s - failed to build registry: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Registered %d skills", logPrefix, len(reg.List())))

	// Step 3: Rate limiter and access classifier
	limiter := ratelimit.New(cfg.RateLimitQuota, cfg.RateLimitWindow)
	limiter.StartSweeper()
	defer limiter.Stop()

	classifier := access.NewClassifier(cfg.NodeName)

	// Step 4: Dispatcher shared by both transport bindings
	disp := dispatcher.New(dispatcher.Params{
		Registry: reg,
		Limiter:  limiter,
		Access:   classifier,
	})

	// Step 5: Connect to the channel network
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.NodeName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to channel network: %w", logPrefix, err)
	}
	s.nc = nc
	slog.Info(fmt.Sprintf("%s - Connected to channel network at %s", logPrefix, cfg.COMMSURL))

	// Step 6: Channel listener
	s.listener = NewListener(nc, disp, cfg.NodeName)
	if err := s.listener.Start(ctx, cfg.SubjectPrefix); err != nil {
		nc.Close()
		return err
	}

	// Step 7: Manifest broadcaster
	broadcaster := manifest.New(manifest.Params{
		Publisher: nc,
		Registry:  reg,
		Subject:   commsutil.DiscoverySubject(cfg.SubjectPrefix),
		Node:      cfg.NodeName,
		Interval:  cfg.ManifestInterval,
	})
	broadcaster.Start()
	defer broadcaster.Stop()

	// Step 8: HTTP binding
	api := httpapi.New(disp, cfg.NodeName)
	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	s.httpServer = &http.Server{Addr: httpAddr, Handler: api.Router()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP binding listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Skillbus node is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	s.listener.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	s.httpServer.Shutdown(shutdownCtx)
	nc.Drain()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}
