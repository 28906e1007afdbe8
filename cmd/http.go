package cmd

import (
	commonJetstream "club-registration/common/jetstream"
	commonOtel "club-registration/common/otel"
	inboundCron "club-registration/inbound/cron"
	inboundHttp "club-registration/inbound/http"
	"club-registration/outbound/journal"
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log"
	"log/slog"
	"net/http"
	"os"
	"runtime/pprof"
	"time"
)

func runHttpServerCmd(ctx context.Context) {
	cfg := newCfg("env")

	if cfg.GetString("env") == "dev" {
		cpu, err := os.Create("http-cpu.prof")
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer cpu.Close()

		err = pprof.StartCPUProfile(cpu)
		if err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()

		mem, err := os.Create("http-mem.prof")
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer mem.Close()

		err = pprof.WriteHeapProfile(mem)
		if err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
		defer mem.Close()
	}

	shutdownTracer, err := commonOtel.InitTracerProvider(ctx, cfg)
	if err != nil {
		log.Fatalln("unable to init tracer provider", err)
	}

	validate := validator.New()

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	commonJetstream.CreateQueueStream(ctx, js)

	backendClient := newBackendClient(cfg)
	checkoutLoader := newCheckoutLoader(ctx, cfg)
	journalQueries := journal.New(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(20 * time.Second)

	inboundHttp.RegisterAttemptHttp(mux, backendClient, cacheClient, validate)
	inboundHttp.RegisterPaymentHttp(mux, cfg, backendClient, cacheClient, journalQueries, js, validate, checkoutLoader)
	inboundHttp.RegisterRegistrationHttp(mux, backendClient, cacheClient, js)
	inboundHttp.RegisterEventHttp(mux, backendClient, cacheClient)

	eventCron := &inboundCron.EventCron{
		Cfg:   cfg,
		Cache: cacheClient,
		Api:   backendClient,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           timeoutMiddleware(inboundHttp.CorsMiddleware(cfg.GetString("server.allowed_origin"), mux)),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started")

	go func() {
		eventCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	if err := shutdownTracer(ctxShutDown); err != nil {
		slog.Error("unable to shutdown tracer provider", slog.Any("err", err))
	}

	slog.Info("http server stopped")
}
