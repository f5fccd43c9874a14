package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openfloor/debateprep/internal/config"
	"github.com/openfloor/debateprep/internal/engine"
	"github.com/openfloor/debateprep/internal/provider"
	"github.com/openfloor/debateprep/internal/server"
	"github.com/openfloor/debateprep/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	// Check for HF_API_KEY env override
	if key := os.Getenv("HF_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if env := os.Getenv("DEBATEPREP_DB"); env != "" {
		dbPath = env
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng := engine.New(db)

	var prov provider.Client
	prov, err = provider.NewClient(cfg.Provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: provider not configured (%v), generation disabled\n", err)
		prov = nil
	} else {
		fmt.Fprintf(os.Stderr, "  provider: %s (%s)\n", cfg.Provider.Name, cfg.Provider.Model)
	}

	srv := server.New(db, eng, prov, cfg.Provider, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "debateprep serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
