package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/Artexxx/employee-service/internal/api"
	"github.com/Artexxx/employee-service/internal/config"
	"github.com/Artexxx/employee-service/internal/exchange/consumer"
	"github.com/Artexxx/employee-service/internal/exchange/producer"
	"github.com/Artexxx/employee-service/internal/repository/employee"
	"github.com/Artexxx/employee-service/internal/repository/events"
	"github.com/Artexxx/employee-service/library/pg"
	"github.com/Artexxx/employee-service/library/yamlreader"
)

const defaultAppName = "employee"

var version = "1.0"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	cfg := MustNewConfig(parseFlags())
	logger := initLogger(cfg.Log)
	appName := cfg.UserAPI.Name.GetOr(defaultAppName)

	printBanner(os.Stdout, appName, version)

	seed := cfg.Generator.Seed.GetOr(time.Now().UnixNano())
	employeeRepo := employee.NewRepository(
		employee.Config{MaxEmployees: cfg.Generator.MaxEmployees.Get()},
		rand.New(rand.NewSource(seed)),
		time.Now,
		logger,
	)
	logger.Info().Int64("seed", seed).Msg("employee generator ready")

	users, err := api.NewUsers(
		cfg.Security.BcryptCost.GetOr(bcrypt.DefaultCost),
		api.DefaultAccounts(cfg.Security.AdminPassword.GetOr("p"), cfg.Security.AlphaPassword.GetOr("p"))...,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("users init failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := api.ServiceDeps{
		Port:      cfg.UserAPI.Port.GetOr(8080),
		Name:      appName,
		Version:   version,
		Profile:   cfg.UserAPI.Profile.Get(),
		Logger:    logger,
		Employees: employeeRepo,
		Users:     users,
		Realm:     cfg.Security.Realm.Get(),
		Registry:  registry,
		Health:    map[string]api.HealthCheck{},
		Shutdown:  cancel,
		Now:       time.Now,
	}

	var journal *events.Repository
	if cfg.Postgres.Enabled() {
		pgClient, err := pg.NewPG(ctx, cfg.Postgres.Conn.Get(), logger, pg.WithMaxConns(cfg.Postgres.MaxConns.Get()))
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres init failed")
		}
		defer pgClient.Close()

		journal = events.NewRepository(pgClient.Pool())
		if err := journal.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("journal schema init failed")
		}

		deps.Events = journal
		deps.Health["postgres"] = pgClient.Ping
	} else {
		logger.Info().Msg("postgres not configured, journal disabled")
	}

	if cfg.Kafka.Enabled() {
		employeeProducer, err := initEmployeeProducer(cfg.Kafka, appName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("kafka producer init failed")
		}
		defer func() { _ = employeeProducer.Close() }()

		deps.Publisher = employeeProducer
	} else {
		logger.Info().Msg("kafka not configured, change events disabled")
	}

	apiService := api.NewService(deps)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info().Msg("запуск HTTP API")
		if err := apiService.Start(gctx); err != nil {
			logger.Error().Err(err).Msg("HTTP API завершился с ошибкой")

			return err
		}

		logger.Info().Msg("HTTP API остановлен")

		return nil
	})

	if journal != nil && cfg.Kafka.Enabled() {
		journalConsumer := consumer.NewJournalRunner(
			cfg.Kafka.Bootstrap.Get(),
			cfg.Kafka.Topic.Get(),
			cfg.Kafka.GroupID.GetOr("employee_journal"),
			journal,
			logger,
		)

		group.Go(func() error {
			logger.Info().Msg("запуск consumer журнала")
			if err := journalConsumer.Start(gctx); err != nil {
				logger.Error().Err(err).Msg("consumer журнала завершился с ошибкой")

				return err
			}

			logger.Info().Msg("consumer журнала остановлен")

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("service stopped with error")
		return
	}

	logger.Info().Msg("all services stopped")
}

func initLogger(cfg config.LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level.GetOr("info"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Console.Get() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	logger = logger.Level(level).With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

func initEmployeeProducer(kafkaConfig config.KafkaConfig, source string, logger zerolog.Logger) (*producer.EmployeeProducer, error) {
	sCfg := sarama.NewConfig()
	sCfg.Version = sarama.V3_3_2_0
	sCfg.ClientID = kafkaConfig.ProducerClientID.GetOr(source)
	sCfg.Producer.Return.Successes = true
	sCfg.Producer.RequiredAcks = sarama.WaitForAll
	sCfg.Producer.Idempotent = true
	sCfg.Net.MaxOpenRequests = 1
	sCfg.Producer.Retry.Max = 5
	sCfg.Producer.Retry.Backoff = 200 * time.Millisecond

	sp, err := sarama.NewSyncProducer(strings.Split(kafkaConfig.Bootstrap.Get(), ","), sCfg)
	if err != nil {
		return nil, err
	}

	return producer.NewEmployeeProducer(
		sp,
		producer.Config{
			Topic:  kafkaConfig.Topic.Get(),
			Source: source,
		},
		logger,
	), nil
}

func MustNewConfig(path string) *config.Config {
	cfg, err := yamlreader.NewConfig[config.Config](path)

	if err != nil {
		log.Fatal().Str("path", path).Err(err).Msg("ошибка чтения конфигурации приложения")
		return nil
	}

	return cfg
}

func parseFlags() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	// .env читается до разбора YAML, чтобы ${...} видели его переменные
	_ = godotenv.Load(".env")

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/application-local.yaml"
	}
	return configPath
}
