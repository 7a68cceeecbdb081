package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"housingsweep/internal/api"
	routes "housingsweep/internal/api/handlers"
	"housingsweep/internal/config"
	"housingsweep/internal/host"
	"housingsweep/internal/notify"
	"housingsweep/internal/postgres"
	"housingsweep/internal/redis"
	"housingsweep/internal/service/history"
	"housingsweep/internal/service/housing"
	"housingsweep/internal/worker"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
)

type app struct {
	cfg      config.Config
	bridge   *host.Bridge
	feed     *notify.Feed
	housing  *housing.HousingService
	recorder *history.Recorder

	snapshotter *redis.Snapshotter
	historyDB   *postgres.HistoryStore
}

func main() {
	setupLogging()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	a := &app{cfg: cfg}
	a.initializeDatabaseAndCache()
	a.initializeServices()

	ctx, cancel := context.WithCancel(context.Background())
	workers := a.startWorkers(ctx)

	setupSignalHandler(func() {
		a.housing.Dispose()
		cancel()
		workers.Wait()
		closeConnections()
	})

	reportMemoryStats()

	a.runAPIServer()
}

func setupLogging() {
	// Set up logging to file and terminal
	logFile, err := os.OpenFile("housingsweep.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
}

func (a *app) initializeDatabaseAndCache() {
	if a.cfg.HistoryEnabled() {
		postgres.Init(a.cfg.DBUrl)
		a.historyDB = postgres.NewHistoryStore(postgres.GetDB())
	} else {
		log.Println("DB_URL is not set, observation history disabled")
	}

	if a.cfg.SnapshotEnabled() {
		a.snapshotter = redis.NewSnapshotter(redis.Init(a.cfg.RedisUrl))
	} else {
		log.Println("REDIS_URL is not set, seen plot snapshots disabled")
	}
}

func (a *app) initializeServices() {
	clk := clock.New()

	a.bridge = host.NewBridge(clk)
	a.feed = notify.NewFeed(clk, notify.DefaultFeedSize)
	if a.historyDB != nil {
		a.recorder = history.NewRecorder(clk)
	}

	a.housing = housing.New(housing.Options{
		Clock:        clk,
		Host:         a.bridge,
		Notifier:     a.feed,
		Recorder:     a.recorder,
		SweepWindow:  a.cfg.SweepWindow,
		ScanThrottle: a.cfg.ScanThrottle,
	})

	if a.snapshotter != nil {
		if _, err := a.snapshotter.Load(context.Background(), a.housing.Store()); err != nil {
			log.Printf("Failed to load seen plots from Redis: %v", err)
		}
	}
}

func (a *app) startWorkers(ctx context.Context) *sync.WaitGroup {
	deps := worker.Deps{
		Store:    a.housing.Store(),
		Recorder: a.recorder,
	}
	// assigned only when set so the interfaces stay nil
	if a.snapshotter != nil {
		deps.Snapshotter = a.snapshotter
	}
	if a.historyDB != nil {
		deps.Sink = a.historyDB
	}
	return worker.StartAllWorkers(ctx, deps)
}

func (a *app) runAPIServer() {
	// Initialize Gin router
	r := gin.Default()

	// Configure API routes
	api.SetupRouter(r, routes.Deps{
		Housing: a.housing,
		Bridge:  a.bridge,
		Feed:    a.feed,
		Config: map[string]string{
			"port":     a.cfg.Port,
			"history":  strconv.FormatBool(a.cfg.HistoryEnabled()),
			"snapshot": strconv.FormatBool(a.cfg.SnapshotEnabled()),
		},
	})

	// Start the server
	if err := r.Run(a.cfg.Port); err != nil {
		log.Fatalf("API server stopped: %v", err)
	}
}

func reportMemoryStats() {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
		}
	}()
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Connections closed")
}

func setupSignalHandler(shutdown func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received, flushing and closing connections...")
		shutdown()
		os.Exit(0)
	}()
}
