package di

import (
	"context"
	"fmt"

	"exerciselinks/application/ports"
	"exerciselinks/application/services"
	domainconfig "exerciselinks/domain/config"
	"exerciselinks/domain/core/entities"
	"exerciselinks/infrastructure/config"
	"exerciselinks/infrastructure/messaging/eventbridge"
	"exerciselinks/infrastructure/persistence/dynamodb"
	"exerciselinks/infrastructure/persistence/memory"
	"exerciselinks/infrastructure/resilience"
	apperrors "exerciselinks/pkg/errors"
	"exerciselinks/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "exercise-links"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideAWSConfig creates AWS configuration.
// Credentials resolve lazily, so this is safe for the memory backend too.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// Backend groups the adapters chosen by STORAGE_BACKEND
type Backend struct {
	Links     ports.LinkStore
	Exercises ports.ExerciseLookup
	Locker    ports.Locker
	Publisher ports.EventPublisher
}

// ProvideBackend builds the storage, locking and publishing adapters
func ProvideBackend(
	cfg *config.Config,
	dynamoClient *awsdynamodb.Client,
	eventClient *awseventbridge.Client,
	logger *zap.Logger,
) (*Backend, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return provideMemoryBackend(cfg, logger)
	case config.StorageDynamoDB:
		exercises := resilience.NewCircuitBreakerLookup(
			dynamodb.NewExerciseRepository(dynamoClient, cfg.ExerciseTable, logger),
			resilience.DefaultCircuitBreakerConfig("exercise-catalog"),
			logger,
		)
		return &Backend{
			Links:     dynamodb.NewLinkRepository(dynamoClient, cfg.DynamoDBTable, cfg.LinkIndexName, logger),
			Exercises: exercises,
			Locker:    dynamodb.NewDistributedLock(dynamoClient, cfg.LockTable, logger),
			Publisher: eventbridge.NewEventBridgePublisher(eventClient, cfg.EventBusName, logger),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func provideMemoryBackend(cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	var seed []entities.Exercise
	if cfg.ExerciseSeedFile != "" {
		var err error
		if seed, err = memory.LoadExerciseSeed(cfg.ExerciseSeedFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded exercise seed",
			zap.String("file", cfg.ExerciseSeedFile),
			zap.Int("exercises", len(seed)),
		)
	}

	return &Backend{
		Links:     memory.NewInMemoryLinkStore(),
		Exercises: memory.NewInMemoryExerciseCatalog(seed...),
		Locker:    memory.NewMutexLocker(),
		Publisher: memory.NewInMemoryEventPublisher(logger),
	}, nil
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("exercise_links")
}

// ProvideMetrics picks the metric sinks for link operations.
// CloudWatch is added in Lambda where no one scrapes /metrics.
func ProvideMetrics(
	cfg *config.Config,
	collector *observability.Collector,
	client *awscloudwatch.Client,
	logger *zap.Logger,
) ports.Metrics {
	if cfg.EnableMetrics && cfg.IsLambda {
		namespace := fmt.Sprintf("ExerciseLinks/%s", cfg.Environment)
		return observability.MultiMetrics{
			collector,
			observability.NewCloudWatchMetrics(namespace, client, logger),
		}
	}
	return collector
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideDomainConfig resolves business limits for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideExerciseLinkService creates the link service
func ProvideExerciseLinkService(
	backend *Backend,
	metrics ports.Metrics,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.ExerciseLinkService {
	return services.NewExerciseLinkService(
		backend.Links,
		backend.Exercises,
		backend.Locker,
		backend.Publisher,
		metrics,
		domainCfg,
		logger,
	)
}

// ProvideErrorHandler creates the HTTP error renderer; development responses
// carry raw error messages
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}
