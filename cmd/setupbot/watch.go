package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jibbril/setupbot"
	"github.com/jibbril/setupbot/config"
	"github.com/jibbril/setupbot/exchange"
	"github.com/jibbril/setupbot/notification"
	"github.com/jibbril/setupbot/tools/log"
	"github.com/jibbril/setupbot/tools/metrics"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:     "watch",
		HelpName: "watch",
		Usage:    "Follow live candles and notify setups as they happen",
		Flags:    []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cfg)
		},
	}
}

func watch(ctx context.Context, cfg *config.Config) error {
	strategies, err := cfg.BuildStrategies()
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()

	binanceOptions := []exchange.BinanceOption{exchange.WithBinanceMetrics(collector)}
	if cfg.Binance.APIKey != "" {
		binanceOptions = append(binanceOptions, exchange.WithBinanceCredentials(cfg.Binance.APIKey, cfg.Binance.APISecret))
	}
	if cfg.Binance.Testnet {
		binanceOptions = append(binanceOptions, exchange.WithTestNet())
	}
	if cfg.Binance.HeikinAshi {
		binanceOptions = append(binanceOptions, exchange.WithBinanceHeikinAshiCandle())
	}
	feeder, err := exchange.NewBinance(ctx, binanceOptions...)
	if err != nil {
		return err
	}

	options := []setupbot.Option{
		setupbot.WithMetrics(collector),
		setupbot.WithWarmup(cfg.Warmup),
		setupbot.WithMaxLength(cfg.MaxLength),
	}

	st, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()
	if st != nil {
		options = append(options, setupbot.WithStorage(st))
	}

	if mail := cfg.Notifications.Mail; mail.Enabled {
		options = append(options, setupbot.WithNotifier(notification.NewMail(notification.MailParams{
			SMTPServerPort:    mail.Port,
			SMTPServerAddress: mail.Server,
			To:                mail.To,
			From:              mail.From,
			Password:          mail.Password,
		})))
	}

	if redis := cfg.Notifications.Redis; redis.Enabled {
		publisher, err := notification.NewRedis(ctx, notification.RedisParams{
			Addr:     redis.Addr,
			Password: redis.Password,
			DB:       redis.DB,
			Channel:  redis.Channel,
		})
		if err != nil {
			return err
		}
		defer publisher.Close()
		options = append(options, setupbot.WithNotifier(publisher))
	}

	bot, err := setupbot.NewBot(cfg.Settings(), feeder, strategies, options...)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		server := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(collector), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server")
			}
		}()
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.CheckErr(log.WarnLevel, server.Shutdown(shutdown))
		}()
		log.Infof("serving metrics on %s/metrics", cfg.Metrics.Addr)
	}

	return bot.Run(ctx)
}

func metricsMux(collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return mux
}
