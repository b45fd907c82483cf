package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	httpapi "ai-batch-transcription-service/internal/api/http"
	"ai-batch-transcription-service/internal/app"
	"ai-batch-transcription-service/internal/cache"
	"ai-batch-transcription-service/internal/config"
	"ai-batch-transcription-service/internal/events"
	"ai-batch-transcription-service/internal/observability"
	"ai-batch-transcription-service/internal/service/decoder"
	"ai-batch-transcription-service/internal/service/frontend"
	"ai-batch-transcription-service/internal/service/transcribe"
	"ai-batch-transcription-service/internal/service/transcribe/stub"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatalf("application start failed: %v", err)
	}
	defer application.Shutdown()

	modelCfg, err := config.LoadModelConfig(cfg.Model.Dir)
	if err != nil {
		log.Fatalf("failed to load model config: %v", err)
	}

	extractor := frontend.NewExtractor(frontend.Config{
		SampleRate:    modelCfg.SampleRate,
		FrameLengthMs: modelCfg.FrontendConf.FrameLengthMs,
		FrameShiftMs:  modelCfg.FrontendConf.FrameShiftMs,
		NumMels:       modelCfg.FrontendConf.NumMels,
		LFRm:          modelCfg.FrontendConf.LFRm,
		LFRn:          modelCfg.FrontendConf.LFRn,
		CMVNMeans:     modelCfg.CMVN.Shift,
		CMVNVars:      modelCfg.CMVN.Scale,
	})

	inference, tokenizer, err := newBackend(cfg.Model.Backend)
	if err != nil {
		log.Fatalf("failed to initialize model backend: %v", err)
	}

	svc := transcribe.New(transcribe.Config{
		SampleRate:        modelCfg.SampleRate,
		BlankID:           modelCfg.ModelConf.BlankID,
		SubsamplingFactor: modelCfg.ModelConf.SubsamplingFactor,
		FrameShiftMs:      modelCfg.FrontendConf.FrameShiftMs,
	}, extractor, inference, tokenizer)

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	resultCache := cache.New(&cache.Config{
		Enabled: cfg.Redis.Enabled,
		Addr:    cfg.Redis.Addr,
		Prefix:  cfg.Redis.Prefix,
		TTL:     cfg.Redis.TTL,
	})
	defer resultCache.Close()

	obsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	obsServer.Start()

	handler := httpapi.NewHandler(svc, publisher, resultCache, cfg.Transcribe)
	apiServer := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     httpapi.NewRouter(handler),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	go func() {
		log.Printf("Transcription API started on :%s", cfg.Service.HTTPPort)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve failed: %v", err)
		}
	}()

	// gRPC health endpoint for orchestration probes
	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)
	go func() {
		log.Printf("gRPC health server started on :%s", cfg.Service.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = apiServer.Shutdown(ctx)
	_ = obsServer.Shutdown(ctx)
	grpcServer.GracefulStop()
}

// newBackend selects the inference engine. Only the deterministic stub
// backend ships today; runtime execution of the real model is delegated
// to an external component.
func newBackend(name string) (transcribe.Inference, decoder.Tokenizer, error) {
	switch name {
	case "stub", "":
		return stub.NewEngine(), stub.NewTokenizer(), nil
	default:
		return nil, nil, fmt.Errorf("unknown model backend %q (supported: stub)", name)
	}
}
