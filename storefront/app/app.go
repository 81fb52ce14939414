package app

import (
	"context"
	stdLog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookstore-storefront/pkg/kafka"
	"github.com/Astemirdum/bookstore-storefront/pkg/logger"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/events"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/server"
)

func Run(cfg config.Config) {
	log, closeLog, err := logger.NewLogger(cfg.Log, "storefront")
	if err != nil {
		stdLog.Fatal("logger ", err)
	}
	defer closeLog()
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sf, err := New(ctx, log, cfg)
	if err != nil {
		log.Fatal("storefront init", zap.Error(err))
	}

	janitor, err := sf.Janitor(cfg.Cache.SweepSpec)
	if err != nil {
		log.Fatal("janitor", zap.Error(err))
	}
	janitor.Start()

	g, gctx := errgroup.WithContext(ctx)
	if err := sf.runEvents(gctx, g); err != nil {
		log.Fatal("events", zap.Error(err))
	}

	srv := server.NewServer(cfg.Server, sf.Handler().NewRouter())
	log.Info("http server start ON: ", zap.String("addr", srv.Addr()))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	<-janitor.Stop().Done()
	stop()
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("events", zap.Error(err))
	}
	if err := sf.Close(); err != nil {
		log.Error("storefront close", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}

// runEvents starts the configured invalidation feeds on g.
func (s *Storefront) runEvents(ctx context.Context, g *errgroup.Group) error {
	cfg := s.Config.Events
	origin := uuid.NewString()
	d := events.NewDispatcher(s.Log, s.Query, s.Metrics, origin)

	if cfg.Kafka.Enabled() {
		group, err := kafka.NewConsumer(cfg.Kafka)
		if err != nil {
			return err
		}
		producer, err := kafka.NewSyncProducer(cfg.Kafka)
		if err != nil {
			_ = group.Close()
			return err
		}
		s.closers = append(s.closers, group.Close, producer.Close)

		consumer := events.NewConsumer(d, s.Log)
		g.Go(func() error {
			return kafka.Consume(ctx, group, consumer, s.Log, cfg.Kafka.Topic)
		})
		pub := events.NewPublisher(producer, cfg.Kafka.Topic, origin, s.Log)
		g.Go(func() error {
			pub.Run(ctx, s.Query)
			return nil
		})
		s.Log.Info("kafka event feed", zap.Strings("addrs", cfg.Kafka.Addrs), zap.String("topic", cfg.Kafka.Topic))
	}
	if cfg.WSURL != "" {
		l := events.NewListener(cfg.WSURL, d, s.Clock, s.Log)
		g.Go(func() error { return l.Run(ctx) })
	}
	return nil
}
