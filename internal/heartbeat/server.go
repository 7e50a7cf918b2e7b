package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/listing"
	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/session"
	"github.com/temirov/whatgitbranch/internal/telemetry"
)

const (
	heartbeatRouteConstant    = "/heartbeat"
	repositoriesRouteConstant = "/repositories"
	metricsRouteConstant      = "/metrics"
	serviceNameConstant       = "what-git-branch"
	metricsNamespaceConstant  = "what_git_branch"
	metricsSubsystemConstant  = "http"
	errorFieldConstant        = "error"
	shutdownTimeout           = 5 * time.Second

	runtimeRequiredMessageConstant = "heartbeat server requires a repository runtime"
	metricsRequiredMessageConstant = "heartbeat server requires metrics"
	sessionFailedTemplateConstant  = "unable to prepare request session: %w"
	listenFailedTemplateConstant   = "heartbeat server stopped: %w"
	shutdownFailedTemplateConstant = "heartbeat server shutdown failed: %w"

	heartbeatAnsweredLogMessage = "Answered heartbeat"
	requestFailedLogMessage     = "Heartbeat request failed"
	serverListeningLogMessage   = "Heartbeat server listening"
	serverStoppingLogMessage    = "Heartbeat server stopping"
	countLogFieldConstant       = "count"
	addressLogFieldConstant     = "address"
	pathLogFieldConstant        = "path"
)

var (
	// ErrRuntimeRequired indicates the server was constructed without a runtime.
	ErrRuntimeRequired = errors.New(runtimeRequiredMessageConstant)
	// ErrMetricsRequired indicates the server was constructed without metrics.
	ErrMetricsRequired = errors.New(metricsRequiredMessageConstant)
)

// Dependencies carries Server collaborators.
type Dependencies struct {
	Runtime *session.Runtime
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

// Server answers polling ticks with a fresh Locator and Coordinator per request.
type Server struct {
	application *fiber.App
	runtime     *session.Runtime
	metrics     *telemetry.Metrics
	logger      *zap.Logger
}

// NewServer constructs the Fiber application and registers its routes.
func NewServer(dependencies Dependencies) (*Server, error) {
	if dependencies.Runtime == nil {
		return nil, ErrRuntimeRequired
	}
	if dependencies.Metrics == nil {
		return nil, ErrMetricsRequired
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		runtime: dependencies.Runtime,
		metrics: dependencies.Metrics,
		logger:  logger,
	}
	server.application = fiber.New(fiber.Config{
		AppName:               serviceNameConstant,
		DisableStartupMessage: true,
		ErrorHandler:          server.handleError,
	})

	requestMetrics := fiberprometheus.NewWithRegistry(
		dependencies.Metrics.Registry(),
		serviceNameConstant,
		metricsNamespaceConstant,
		metricsSubsystemConstant,
		nil,
	)
	server.application.Use(fiberzap.New(fiberzap.Config{Logger: logger}))
	server.application.Use(requestMetrics.Middleware)

	server.application.Get(heartbeatRouteConstant, server.heartbeat)
	server.application.Post(heartbeatRouteConstant, server.heartbeat)
	server.application.Get(repositoriesRouteConstant, server.repositories)
	server.application.Get(metricsRouteConstant, adaptor.HTTPHandler(promhttp.HandlerFor(dependencies.Metrics.Registry(), promhttp.HandlerOpts{})))

	return server, nil
}

// Application exposes the Fiber application.
func (server *Server) Application() *fiber.App {
	return server.application
}

// Run listens on address until executionContext is cancelled, then shuts down gracefully.
func (server *Server) Run(executionContext context.Context, address string) error {
	listenResult := make(chan error, 1)
	go func() {
		listenResult <- server.application.Listen(address)
	}()
	server.logger.Info(serverListeningLogMessage, zap.String(addressLogFieldConstant, address))

	select {
	case listenError := <-listenResult:
		if listenError != nil {
			return fmt.Errorf(listenFailedTemplateConstant, listenError)
		}
		return nil
	case <-executionContext.Done():
		server.logger.Info(serverStoppingLogMessage)
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownError := server.application.ShutdownWithContext(shutdownContext); shutdownError != nil {
			return fmt.Errorf(shutdownFailedTemplateConstant, shutdownError)
		}
		return nil
	}
}

func (server *Server) heartbeat(requestContext *fiber.Ctx) error {
	requestSession, sessionError := server.runtime.NewSession(locator.InvocationHeartbeat)
	if sessionError != nil {
		return fmt.Errorf(sessionFailedTemplateConstant, sessionError)
	}

	executionContext := requestContext.UserContext()
	repositories := requestSession.Coordinator.Repositories(executionContext)
	payload := BuildPayload(repositories, requestSession.Coordinator.Primary(executionContext))
	server.metrics.ObserveHeartbeat(len(repositories))
	server.logger.Debug(heartbeatAnsweredLogMessage, zap.Int(countLogFieldConstant, len(repositories)))

	return requestContext.JSON(payload)
}

func (server *Server) repositories(requestContext *fiber.Ctx) error {
	requestSession, sessionError := server.runtime.NewSession(locator.InvocationRequest)
	if sessionError != nil {
		return fmt.Errorf(sessionFailedTemplateConstant, sessionError)
	}

	sorted := server.runtime.VisibleRepositories(requestSession.Coordinator.SortedRepositories(requestContext.UserContext()))
	return requestContext.JSON(listing.BuildRows(sorted, requestSession.Locator.Root()))
}

func (server *Server) handleError(requestContext *fiber.Ctx, handlerError error) error {
	statusCode := fiber.StatusInternalServerError
	var fiberError *fiber.Error
	if errors.As(handlerError, &fiberError) {
		statusCode = fiberError.Code
	}
	if statusCode >= fiber.StatusInternalServerError {
		server.logger.Error(requestFailedLogMessage, zap.String(pathLogFieldConstant, requestContext.Path()), zap.Error(handlerError))
	}
	return requestContext.Status(statusCode).JSON(fiber.Map{errorFieldConstant: handlerError.Error()})
}
