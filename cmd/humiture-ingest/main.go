package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LogicPi-cn/lgp-iot-db/internal/api"
	"github.com/LogicPi-cn/lgp-iot-db/internal/config"
	"github.com/LogicPi-cn/lgp-iot-db/internal/diag"
	"github.com/LogicPi-cn/lgp-iot-db/internal/ingest"
	"github.com/LogicPi-cn/lgp-iot-db/internal/kafkabus"
	"github.com/LogicPi-cn/lgp-iot-db/internal/store"
	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

var (
	rootCmd = &cobra.Command{
		Use:   "humiture-ingest",
		Short: "Store humiture frames received over MQTT",
		Long:  "humiture-ingest subscribes to device frames, decodes them and stores the readings in PostgreSQL.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	configPath string
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config")
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	log := logrus.StandardLogger()

	st, err := store.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()
	if cfg.Database.Migrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	metrics, err := diag.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	diagnostics := diag.Multi{diag.Logger{Log: log.WithField("component", "codec")}, metrics}

	codec, err := humiture.New(humiture.Options{
		Variant:        cfg.Codec.Variant,
		Diagnostics:    diagnostics,
		VerifyChecksum: cfg.Codec.VerifyChecksum,
	})
	if err != nil {
		return err
	}

	sinks := []ingest.Sink{st}
	if cfg.Kafka.Enabled() {
		pub := kafkabus.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer pub.Close()
		sinks = append(sinks, pub)
		log.WithField("topic", cfg.Kafka.Topic).Info("forwarding readings to kafka")
	}

	pipeline := ingest.NewPipeline(codec, cfg.Codec.Samples, log, sinks...)
	sub := ingest.NewSubscriber(cfg.MQTT, pipeline, st, log)
	if err := sub.Start(); err != nil {
		return err
	}
	defer sub.Stop()

	srv := api.New(api.Options{
		Addr: cfg.HTTP.Addr,
		Analyze: humiture.AnalyzeOptions{
			Variant:        cfg.Codec.Variant,
			VerifyChecksum: cfg.Codec.VerifyChecksum,
			Diagnostics:    diagnostics,
		},
		Log: log,
	}, st)

	log.WithField("variant", codec.Variant()).Info("ingest running")
	return srv.Run(ctx)
}
