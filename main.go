package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	pkgaction "github.com/Cardassist-core-poc/server/internal/action"
	"github.com/Cardassist-core-poc/server/internal/assistant/classifier"
	"github.com/Cardassist-core-poc/server/internal/assistant/consent"
	"github.com/Cardassist-core-poc/server/internal/assistant/handlers"
	"github.com/Cardassist-core-poc/server/internal/assistant/history"
	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	"github.com/Cardassist-core-poc/server/internal/assistant/router"
	"github.com/Cardassist-core-poc/server/internal/auth"
	"github.com/Cardassist-core-poc/server/internal/core"
	"github.com/Cardassist-core-poc/server/internal/httpapi"
	"github.com/Cardassist-core-poc/server/internal/notify"
	"github.com/Cardassist-core-poc/server/internal/speech"
	"github.com/Cardassist-core-poc/server/internal/store"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
	pkgpostgres "github.com/Cardassist-core-poc/server/pkg/postgres"
	pkgredis "github.com/Cardassist-core-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Classifier model.ClassifierModelConfig
	Consent    model.ConsentConfig
	ActionAPI  model.ActionAPIConfig
	Store      model.StoreConfig
	History    model.HistoryConfig

	// Optional integrations
	WhatsApp   notify.Config
	AssemblyAI speech.Config

	// HTTP server
	Addr        string `envconfig:"HTTP_ADDR" default:":8080"`
	AuthSecret  string `envconfig:"AUTH_SECRET"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	pool, err := envCfg.Postgres.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise Postgres pool: %v", err)
	}
	defer pool.Close()

	queryTimeout, err := time.ParseDuration(envCfg.Store.QueryTimeout)
	if err != nil {
		log.Fatalf("Invalid STORE_QUERY_TIMEOUT '%s': %v", envCfg.Store.QueryTimeout, err)
	}
	st := store.New(pool, queryTimeout)

	einocb.AppendGlobalHandlers(classifier.NewUsageCallbacks())

	cm, err := classifier.NewGeminiModel(ctx, envCfg.APIKey, envCfg.BaseURL, envCfg.Classifier)
	if err != nil {
		log.Fatalf("Failed to initialise chat model: %v", err)
	}
	cls, err := classifier.New(cm, envCfg.Classifier)
	if err != nil {
		log.Fatalf("Failed to initialise classifier: %v", err)
	}

	proposalTTL, err := time.ParseDuration(envCfg.Consent.ProposalTTL)
	if err != nil {
		log.Fatalf("Invalid CONSENT_PROPOSAL_TTL '%s': %v", envCfg.Consent.ProposalTTL, err)
	}
	recordTTL, err := time.ParseDuration(envCfg.Consent.RecordTTL)
	if err != nil {
		log.Fatalf("Invalid CONSENT_RECORD_TTL '%s': %v", envCfg.Consent.RecordTTL, err)
	}
	historyTTL, err := time.ParseDuration(envCfg.History.TTL)
	if err != nil {
		log.Fatalf("Invalid CHAT_HISTORY_TTL '%s': %v", envCfg.History.TTL, err)
	}

	invoker, err := pkgaction.NewHTTPInvoker(envCfg.ActionAPI)
	if err != nil {
		log.Fatalf("Failed to initialise action client: %v", err)
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if envCfg.WhatsApp.Enabled() {
		notifier = notify.NewWhatsAppNotifier(envCfg.WhatsApp, st.Users)
		logx.Info().Msg("WhatsApp notifications enabled")
	}

	var transcriber speech.Transcriber
	if envCfg.AssemblyAI.Enabled() {
		transcriber = speech.NewAssemblyAI(envCfg.AssemblyAI)
		logx.Info().Msg("Voice transcription enabled")
	}

	ledger := consent.NewRedisLedger(rdb, recordTTL)

	rt, err := router.New(cls, ledger, handlers.All(handlers.Deps{
		Store:       st,
		Invoker:     invoker,
		Notifier:    notifier,
		ProposalTTL: proposalTTL,
	}))
	if err != nil {
		log.Fatalf("Failed to initialise router: %v", err)
	}

	api := httpapi.New(
		rt,
		cls,
		transcriber,
		history.NewRedisRepository(rdb, historyTTL),
		auth.NewVerifier(envCfg.AuthSecret),
	)

	srv := &http.Server{
		Addr:              envCfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", envCfg.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logx.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Shutdown did not complete cleanly")
	}
}
