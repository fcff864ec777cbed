package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"comanda-core/internal/broadcast"
	"comanda-core/internal/config"
	"comanda-core/internal/connections/database"
	"comanda-core/internal/connections/kafka"
	"comanda-core/internal/connections/rabbitmq"
	"comanda-core/internal/logger"
	"comanda-core/internal/microservices/display"
	"comanda-core/internal/microservices/order"
	"comanda-core/internal/microservices/tracking"
)

const migrationDir = "migrations"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "comanda",
		Short: "order state broadcasting core",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	rootCmd.AddCommand(
		apiCommand(&configPath),
		trackingCommand(&configPath),
		displayCommand(&configPath),
		migrateCommand(&configPath),
		createMigrationCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, err := config.FindConfig()
		if err != nil {
			return nil, fmt.Errorf("no config file found, pass --config")
		}
		path = found
	}
	return config.Load(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newDispatcher builds the broadcast dispatcher over the configured
// transport and returns a close func for the underlying connection.
func newDispatcher(cfg *config.Config, lg *logger.Logger) (*broadcast.Dispatcher, func(), error) {
	switch cfg.Broker {
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka connect: %w", err)
		}
		return broadcast.New(broadcast.NewKafkaTransport(producer), lg),
			func() { _ = producer.Close() }, nil
	default:
		client, err := rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq connect: %w", err)
		}
		if err := client.DeclareChannels(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return broadcast.New(broadcast.NewAMQPTransport(client), lg), client.Close, nil
	}
}

func apiCommand(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "api",
		Short: "run the order service (create + transition API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.HTTP.OrderPort
			}
			ctx, cancel := signalContext()
			defer cancel()

			db, err := database.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			lg := logger.New("broadcast")
			bus, closeBus, err := newDispatcher(cfg, lg)
			if err != nil {
				return err
			}
			defer closeBus()

			return order.Run(ctx, port, db, bus)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "http port (default from config)")
	return cmd
}

func trackingCommand(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "tracking",
		Short: "run the pull-based order tracking service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.HTTP.TrackingPort
			}
			ctx, cancel := signalContext()
			defer cancel()

			db, err := database.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			return tracking.Run(ctx, port, db)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "http port (default from config)")
	return cmd
}

func displayCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "display",
		Short: "run the kitchen display subscriber",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			client, err := rabbitmq.Dial(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.DeclareChannels(); err != nil {
				return err
			}

			return display.Run(ctx, client)
		},
	}
}

func migrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			m, err := migrate.New("file://"+migrationDir, cfg.Database.DSN())
			if err != nil {
				return err
			}
			err = m.Up()
			if err == migrate.ErrNoChange {
				fmt.Println("no change in migration")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("migrated up")
			return nil
		},
	}
}

func createMigrationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create an empty pair of sql migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := time.Now().Format("20060102150405")
			up := fmt.Sprintf("%s/%s_%s.up.sql", migrationDir, version, args[0])
			down := fmt.Sprintf("%s/%s_%s.down.sql", migrationDir, version, args[0])
			if err := os.WriteFile(up, []byte{}, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0o644); err != nil {
				return err
			}
			fmt.Println("created", up)
			fmt.Println("created", down)
			return nil
		},
	}
}
