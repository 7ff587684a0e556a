package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"messenger/internal/auth"
	"messenger/internal/chat"
	"messenger/internal/config"
	"messenger/internal/diag"
	"messenger/internal/notifications"
	"messenger/internal/observability"
	"messenger/internal/presence"
	"messenger/internal/rabbitmq"
	"messenger/internal/rest"
	"messenger/internal/roster"
	"messenger/internal/session"
	"messenger/internal/store"
	"messenger/internal/telemetry"
	"messenger/internal/transport"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer db.Close()

	authStore := auth.NewStore(db)
	userID, err := authStore.UserID()
	if err != nil {
		log.Fatalf("no usable login token, log in first: %v", err)
	}

	restClient := rest.NewClient(cfg.ChatBaseURL, cfg.APIBaseURL, authStore)
	history := store.CachingHistory{Source: restClient, Store: db}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	emitter := telemetry.NewAuditEmitter(publisher, "audit_logs", "messenger", cfg.Environment)

	if cfg.AMQPURL != "" {
		if amqpPub, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			log.Printf("session event publishing disabled: %v", err)
		} else {
			observability.SetPublisher(amqpPub)
			defer amqpPub.Close()
		}
	}

	sess := session.New(transport.New(cfg.SocketURL))
	registry := chat.NewRegistry(sess, history, restClient)
	defer registry.Close()

	tracker := presence.NewTracker()
	tracker.Attach(sess)
	defer tracker.Detach()

	feed := notifications.NewFeed(store.CachingFeed{Source: restClient, Store: db})
	feed.Attach(sess)
	defer feed.Detach()

	chatList := roster.New(restClient, tracker, userID)

	if err := sess.Connect(ctx, userID); err != nil {
		log.Fatalf("failed to connect session: %v", err)
	}
	defer sess.Disconnect()

	auditUserID := int64(userID)
	emitter.Emit(ctx, telemetry.LevelInfo, "session started", &auditUserID)

	if err := feed.Backfill(ctx); err != nil {
		log.Printf("notification backfill failed: %v", err)
	}
	if err := chatList.Refresh(ctx); err != nil {
		log.Printf("roster refresh failed: %v", err)
	}

	snapshot := func() diag.Snapshot {
		return diag.Snapshot{
			State:               sess.State().String(),
			UserID:              sess.UserID(),
			OnlineCount:         tracker.Count(),
			Conversations:       registry.MessageCounts(),
			UnreadNotifications: feed.Unread(),
			UnreadMessages:      chatList.UnreadTotal(),
			Peers:               chatList.Entries(),
		}
	}

	server := &http.Server{
		Addr:    cfg.DiagAddr,
		Handler: diag.NewRouter(snapshot, emitter, cfg.Debug),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("diagnostics server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("diagnostics server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
