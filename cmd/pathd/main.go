package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/railpath/internal/dispatch"
	"github.com/danielpatrickdp/railpath/internal/httpapi"
	"github.com/danielpatrickdp/railpath/internal/netstore"
	"github.com/danielpatrickdp/railpath/internal/railpf"
	"github.com/danielpatrickdp/railpath/internal/rpc"
)

// #region main
func main() {
	dbPath := envOr("RAILPATH_DB", "railpath.db")
	grpcAddr := envOr("RAILPATH_GRPC_ADDR", ":50061")
	httpAddr := envOr("RAILPATH_HTTP_ADDR", ":8080")

	cfg := dispatch.DefaultConfig()
	cfg.Workers = envInt("RAILPATH_WORKERS", cfg.Workers)
	cfg.Timeout = envDuration("RAILPATH_SEARCH_TIMEOUT", cfg.Timeout)

	store, err := netstore.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	d := dispatch.New(cfg, railpf.DefaultConfig(), store.DB())
	if err := loadActive(store, d); err != nil {
		if !errors.Is(err, netstore.ErrNoActiveLayout) {
			log.Fatalf("failed to load layout: %v", err)
		}
		log.Println("[PATHD] no active layout yet; run import-layout, then send SIGHUP")
	}

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", grpcAddr, err)
	}
	grpcServer := grpc.NewServer()
	rpc.RegisterPathServiceServer(grpcServer, rpc.NewServer(d))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	httpServer := &http.Server{Addr: httpAddr, Handler: httpapi.NewRouter(d)}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	log.Printf("[PATHD] ready. DB: %s | gRPC: %s | HTTP: %s | workers=%d timeout=%s",
		dbPath, grpcAddr, httpAddr, cfg.Workers, cfg.Timeout)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range sigs {
		if sig == syscall.SIGHUP {
			if err := loadActive(store, d); err != nil {
				log.Printf("[PATHD] reload: %v", err)
			}
			continue
		}
		break
	}

	log.Println("[PATHD] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
	grpcServer.GracefulStop()
}
// #endregion main

// #region helpers
// loadActive builds the active layout version and swaps it into d.
func loadActive(store *netstore.Store, d *dispatch.Dispatcher) error {
	rec, err := store.GetCurrent()
	if err != nil {
		return err
	}
	if cur := d.Current(); cur != nil && cur.VersionID == rec.VersionID {
		return nil
	}
	n, err := rec.Build()
	if err != nil {
		return err
	}
	d.Load(rec.VersionID, n)
	log.Printf("[PATHD] active layout %q (%s, %d tiles)", rec.Name, rec.VersionID, n.Len())
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(envOr(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(envOr(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
// #endregion helpers
