// Command dbscan-server serves clustering jobs over HTTP and gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/dbscan/internal/api"
	"github.com/banshee-data/dbscan/internal/config"
	"github.com/banshee-data/dbscan/internal/job"
	"github.com/banshee-data/dbscan/internal/rpc"
	"github.com/banshee-data/dbscan/internal/runstore"
	"github.com/banshee-data/dbscan/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON config file")
	listen      = flag.String("listen", "", "HTTP listen address (overrides config)")
	grpcAddr    = flag.String("grpc", "", "gRPC listen address (overrides config; \"off\" disables)")
	dbPath      = flag.String("db", "", "Run database path (overrides config)")
	debugRoutes = flag.Bool("debug", true, "Mount /debug/ admin routes")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const shutdownTimeout = 5 * time.Second

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.EmptyConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.ListenAddr = listen
	}
	if *grpcAddr != "" {
		addr := *grpcAddr
		if addr == "off" {
			addr = ""
		}
		cfg.GRPCAddr = &addr
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("dbscan-server", version.String())
		return
	}
	log.Printf("dbscan-server %s", version.String())

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store *runstore.Store
	var recorder job.Recorder
	if path := cfg.GetDBPath(); path != "" {
		store, err = runstore.Open(path)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer store.Close()
		recorder = store
	}
	runner := job.NewRunner(cfg, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if addr := cfg.GetGRPCAddr(); addr != "" {
		maxMsg := int(cfg.GetMaxRequestBytes()) + 1<<20
		grpcListener := rpc.NewListener(addr, rpc.NewServer(runner), maxMsg)
		if err := grpcListener.Start(); err != nil {
			log.Fatalf("Failed to start gRPC server: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			log.Println("shutting down gRPC server...")
			grpcListener.Stop()
			log.Printf("gRPC server routine stopped")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		apiServer := api.NewServer(runner, store)
		mux := apiServer.ServeMux()
		if *debugRoutes {
			if err := apiServer.AttachAdminRoutes(mux); err != nil {
				log.Fatalf("Failed to attach admin routes: %v", err)
			}
		}

		server := &http.Server{
			Addr:    cfg.GetListenAddr(),
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("HTTP server listening on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
