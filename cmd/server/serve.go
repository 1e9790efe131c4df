package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/outreach/internal/aibot"
	"github.com/Harshitk-cp/outreach/internal/api"
	"github.com/Harshitk-cp/outreach/internal/broadcast"
	"github.com/Harshitk-cp/outreach/internal/config"
	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/Harshitk-cp/outreach/internal/llm"
	"github.com/Harshitk-cp/outreach/internal/objectstore"
	"github.com/Harshitk-cp/outreach/internal/service"
	"github.com/Harshitk-cp/outreach/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	pool, err := store.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := store.Migrate(ctx, pool); err != nil {
		return err
	}

	// Stores
	userStore := store.NewUserStore(pool)
	agentStore := store.NewAgentStore(pool)
	statusStore := store.NewAgentStatusStore(pool)
	artifactStore := store.NewArtifactStore(pool)
	reportStore := store.NewAgentReportStore(pool)
	prospectStore := store.NewProspectStore(pool)
	conversationStore := store.NewConversationStore(pool)
	sequenceStore := store.NewSequenceStore(pool)
	emailEventStore := store.NewEmailEventStore(pool)

	// External clients
	bot := aibot.NewClient(config.AIBotServerURL(), config.AIRequestTimeout())
	if config.AIBotServerURL() == "" || config.AIBotServerToken() == "" {
		logger.Warn("AI bot server not configured; agent execution and QAi are unavailable")
	}

	var objects domain.ObjectStorage
	if bucket := config.S3Bucket(); bucket != "" {
		c, err := objectstore.New(ctx, objectstore.Options{
			Bucket:         bucket,
			Region:         config.S3Region(),
			Endpoint:       config.S3Endpoint(),
			AccessKey:      config.S3AccessKey(),
			SecretKey:      config.S3SecretKey(),
			ForcePathStyle: config.S3ForcePathStyle(),
		})
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		objects = c
		logger.Info("object storage initialized", zap.String("bucket", bucket))
	} else {
		logger.Warn("S3_BUCKET not set; agent file uploads are disabled")
	}

	var broadcaster domain.StatusBroadcaster = broadcast.NewLogBroadcaster(logger)
	if url := config.NATSURL(); url != "" {
		nb, err := broadcast.Connect(url, logger)
		if err != nil {
			logger.Warn("NATS connection failed; status broadcasts are logged only", zap.Error(err))
		} else {
			defer nb.Close()
			broadcaster = nb
			logger.Info("status broadcaster connected", zap.String("url", url))
		}
	}

	llmProvider := config.LLMProvider()
	llmClient, err := llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed; conversation titles are disabled",
			zap.String("provider", llmProvider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	// Services
	agentSvc := service.NewAgentService(agentStore, statusStore, artifactStore, reportStore, logger)
	agentSvc.SetResearchClient(bot)
	if objects != nil {
		agentSvc.SetObjectStorage(objects)
	}
	agentSvc.SetBroadcaster(broadcaster)
	agentSvc.SetExecuteConfig(service.ExecuteConfig{
		AIBotServerURL:   config.AIBotServerURL(),
		AIBotServerToken: config.AIBotServerToken(),
		CallbackBaseURL:  config.CallbackBaseURL(),
		ResourcePrefix:   config.AgentResourceConfigPrefixPath(),
		TestUserIDs:      config.AgentTestUserIDs(),
	})

	prospectSvc := service.NewProspectService(prospectStore, logger)

	conversationSvc := service.NewConversationService(conversationStore, sequenceStore, emailEventStore, artifactStore, logger)
	if config.AIBotServerURL() != "" {
		conversationSvc.SetConverseClient(bot, config.AIBotServerToken())
	}
	if llmClient != nil {
		conversationSvc.SetLLMClient(llmClient)
	}

	campaignSvc := service.NewCampaignService(sequenceStore, emailEventStore, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := api.NewRouter(api.Deps{
		DB:             pool,
		Users:          userStore,
		Agents:         agentSvc,
		Prospects:      prospectSvc,
		Conversations:  conversationSvc,
		Campaigns:      campaignSvc,
		CallbackSecret: config.AIBotServerToken(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		Registry:       reg,
		Logger:         logger,
	})

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, "outreach-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
