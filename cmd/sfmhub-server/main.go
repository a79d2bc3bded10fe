package main

import (
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sfmhub-backend/lib/cache"
	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/configutil"
	"sfmhub-backend/lib/restyutil"
	"sfmhub-backend/lib/scrapers/modelhaven"
	"sfmhub-backend/lib/scrapers/open3dlab"
	"sfmhub-backend/lib/scrapers/sfmlab"
	"sfmhub-backend/lib/scrapers/smutbase"
	"sfmhub-backend/lib/serviceutil"
	"sfmhub-backend/services/integrations"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

type SourceConfig struct {
	BaseURL string `json:"base_url"`
}

type CacheConfig struct {
	ListingTTLMinutes int `json:"listing_ttl_minutes"`
	DetailTTLMinutes  int `json:"detail_ttl_minutes"`
}

type Config struct {
	Port       int          `json:"port"`
	Cache      CacheConfig  `json:"cache"`
	Sfmlab     SourceConfig `json:"sfmlab"`
	Smutbase   SourceConfig `json:"smutbase"`
	Open3dlab  SourceConfig `json:"open3dlab"`
	Modelhaven SourceConfig `json:"modelhaven"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	// credentials come from the environment, not the config file
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read .env", err)
	}

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config.json5 found, using defaults")
	} else if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	adapters, err := initAdapters(cfg, *verbose)
	if err != nil {
		serviceutil.Fatal("init adapters", err)
	}

	responseCache, err := cache.Open()
	if err != nil {
		serviceutil.Fatal("open response cache", err)
	}
	defer responseCache.Close()

	service := integrations.NewService(integrations.Options{
		Cache:      responseCache,
		Adapters:   adapters,
		ListingTTL: time.Duration(cfg.Cache.ListingTTLMinutes) * time.Minute,
		DetailTTL:  time.Duration(cfg.Cache.DetailTTLMinutes) * time.Minute,
	})

	if !*verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), integrations.CORS())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	service.RegisterRoutes(router.Group("/integrations"))

	go serviceutil.StartHttpServer(cfg.Port, router)
	<-ctx.Done()
}

func initAdapters(cfg Config, verbose bool) ([]catalog.Adapter, error) {
	var adapters []catalog.Adapter

	login := os.Getenv("SFMLAB_LOGIN")
	password := os.Getenv("SFMLAB_PASSWORD")
	if login == "" || password == "" {
		slog.Warn("SFMLAB_LOGIN/SFMLAB_PASSWORD not set, the sfmlab source is disabled")
	} else {
		client, err := sfmlab.NewClient(sfmlab.ClientOptions{
			BaseURL:    cfg.Sfmlab.BaseURL,
			Login:      login,
			Password:   password,
			Instrument: restyInstrument(verbose, "sfmlab"),
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, client)
	}

	smutbaseClient, err := smutbase.NewClient(smutbase.ClientOptions{
		BaseURL:    cfg.Smutbase.BaseURL,
		Instrument: restyInstrument(verbose, "smutbase"),
	})
	if err != nil {
		return nil, err
	}
	adapters = append(adapters, smutbaseClient)

	open3dlabClient, err := open3dlab.NewClient(open3dlab.ClientOptions{
		BaseURL:    cfg.Open3dlab.BaseURL,
		Instrument: restyInstrument(verbose, "open3dlab"),
	})
	if err != nil {
		return nil, err
	}
	adapters = append(adapters, open3dlabClient)

	modelhavenClient, err := modelhaven.NewClient(modelhaven.ClientOptions{
		BaseURL:    cfg.Modelhaven.BaseURL,
		Instrument: restyInstrument(verbose, "modelhaven"),
	})
	if err != nil {
		return nil, err
	}
	adapters = append(adapters, modelhavenClient)

	return adapters, nil
}

func restyInstrument(verbose bool, source string) restyutil.InstrumentOutput {
	if !verbose {
		return nil
	}
	return restyutil.NewFilesystemOutput(".dev/resty/" + source)
}
