package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"reelcheck/api"
	"reelcheck/config"
	"reelcheck/handlers"
	"reelcheck/internal/database"
	"reelcheck/internal/logging"
	"reelcheck/services/availability"
	"reelcheck/services/jellyfin"
	"reelcheck/services/lists"
	"reelcheck/services/metadata"
	"reelcheck/services/scheduler"
	"reelcheck/services/watchlist"
	"reelcheck/utils"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("reelcheck starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("REELCHECK_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	logger, closeLog := logging.Setup(settings.Log)
	defer closeLog()
	logger.Info("settings loaded", "path", configPath, "log_file", settings.Log.File)

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Media server
	jf := jellyfin.NewClient(settings.Jellyfin.URL, settings.Jellyfin.WebBaseURL, settings.Jellyfin.APIKey, settings.Jellyfin.UserID)
	if !jf.Configured() {
		log.Printf("[jellyfin] warning: no server url configured; every sweep will report the server unreachable")
	}
	mediaServer := jellyfin.NewBreakerClient(jf, jellyfin.BreakerSettings{})

	watchlistService := watchlist.NewService(db.Watchlist, mediaServer.WebPlayerURL)

	avail := settings.Availability
	gate := availability.NewGate(mediaServer, avail.ConnectivityTimeout())
	prober := availability.NewProber(mediaServer, avail.ProbeTimeout())
	availabilityService := availability.NewService(gate, prober, watchlistService, availability.Options{
		Pacing:            avail.Pacing(),
		Concurrency:       avail.ProbeConcurrency,
		RetryFailedSooner: avail.RetryFailedSooner,
	})
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, watchlistService, gate)

	autoTrigger := availability.NewAutoTrigger(availabilityService, gate, watchlistService, availability.AutoTriggerConfig{
		Threshold: avail.StalenessThreshold(),
		Enabled:   avail.AutoTriggerEnabled(),
		OnReload:  availabilityHandler.PublishWatchlist,
	})

	metadataClient := metadata.NewClient(settings.Metadata.TMDBAPIKey, settings.Metadata.Language, nil)
	if !metadataClient.Configured() {
		log.Printf("[metadata] warning: no TMDB api key configured; search is disabled")
	}

	listsService := lists.NewService(db.Lists, watchlistService, settings.Lists.MDBListAPIKey, settings.Lists.StalenessThreshold())

	schedulerService := scheduler.NewService(cfgManager, watchlistService, availabilityService, autoTrigger, listsService, availabilityHandler.PublishWatchlist)

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	if err := schedulerService.Start(rootCtx); err != nil {
		log.Printf("[scheduler] failed to start: %v", err)
	}

	// Three manual syncs per minute per client and user.
	syncLimiter := api.NewSyncRateLimiter(rootCtx, rate.Every(20*time.Second), 3)

	// Construct router
	var r *mux.Router = utils.NewRouter()
	api.Register(r, settings.Server.APIKey, syncLimiter, api.Handlers{
		Watchlist:      handlers.NewWatchlistHandler(watchlistService, autoTrigger, availabilityService),
		Availability:   availabilityHandler,
		Metadata:       handlers.NewMetadataHandler(metadataClient),
		Lists:          handlers.NewListsHandler(listsService),
		ScheduledTasks: handlers.NewScheduledTasksHandler(cfgManager, schedulerService),
	})

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Manual syncs hold the request until the sweep ends and the
		// websocket stream is long lived.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Printf("[scheduler] stop error: %v", err)
	}

	if err := availabilityService.Close(shutdownCtx); err != nil {
		log.Printf("[availability] background sweeps did not finish: %v", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	stopRoot()
	log.Println("Shutdown complete")
}
