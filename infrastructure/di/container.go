package di

import (
	"exerciselinks/application/ports"
	"exerciselinks/application/services"
	"exerciselinks/infrastructure/config"
	apperrors "exerciselinks/pkg/errors"
	"exerciselinks/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Backend      *Backend
	Collector    *observability.Collector
	Metrics      ports.Metrics
	Tracer       *observability.Tracer
	LinkService  *services.ExerciseLinkService
	ErrorHandler *apperrors.ErrorHandler
}
