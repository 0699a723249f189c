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

	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/booking"
	"github.com/you/venue-booking/internal/feed"
	"github.com/you/venue-booking/internal/handlers"
	"github.com/you/venue-booking/internal/repository"
	"github.com/you/venue-booking/internal/session"
	"github.com/you/venue-booking/pkg/config"
	"github.com/you/venue-booking/pkg/db"
	"github.com/you/venue-booking/pkg/mq"
	"github.com/you/venue-booking/pkg/obs"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	logger := must(zap.NewProduction())
	defer logger.Sync()

	shutdownTracer := obs.InitTracer("slotd")
	defer shutdownTracer(context.Background())

	gdb := db.Open(cfg.PGBackendDSN)
	availRepo := repository.NewAvailabilityRepo(gdb)
	reserveRepo := repository.NewReserveRepo(gdb)
	agg := availability.NewAggregator(availRepo)

	bookingPub := must(mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange))
	defer bookingPub.Close()

	submitter := booking.NewSubmitter(agg, reserveRepo, bookingPub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := feed.NewListener(logger)
	changesCons := must(mq.NewConsumer(
		cfg.RabbitURL, cfg.ChangesExchange, cfg.ChangesQueue,
		[]string{feed.TableBookings + ".*", feed.TableBlockedSlots + ".*"},
		cfg.Prefetch,
	))
	defer changesCons.Close()
	msgs := must(changesCons.Deliveries(ctx))
	go func() {
		if err := listener.Run(ctx, msgs); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change feed stopped", zap.Error(err))
		}
	}()

	mgr := session.NewManager(agg, submitter, listener,
		time.Duration(cfg.RefreshIntervalSec)*time.Second, logger)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handlers.NewRouter(mgr, agg, availRepo),
	}
	go func() {
		logger.Info("slotd listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	logger.Info("shutting down")

	cancel()
	mgr.CloseAll()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
}
