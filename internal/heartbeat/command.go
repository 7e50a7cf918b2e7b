package heartbeat

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/session"
	"github.com/temirov/whatgitbranch/internal/telemetry"
)

const (
	commandUseConstant                 = "serve"
	commandShortDescriptionConstant    = "Serve heartbeat polling over HTTP"
	commandLongDescriptionConstant     = "serve answers GET and POST /heartbeat with the head reference of every tracked repository, GET /repositories with sorted rows, and GET /metrics with Prometheus metrics."
	flagAddressNameConstant            = "address"
	flagAddressDescriptionConstant     = "Listen address (defaults to heartbeat.address)"
	unexpectedArgumentsMessageConstant = "serve does not accept positional arguments"
	serveErrorTemplateConstant         = "unable to serve heartbeat: %w"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)
	errRuntimeProvider     = errors.New(runtimeRequiredMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// MetricsProvider supplies the metrics shared with the runtime observer.
type MetricsProvider func() *telemetry.Metrics

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider  LoggerProvider
	RuntimeProvider session.RuntimeProvider
	MetricsProvider MetricsProvider
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().String(flagAddressNameConstant, "", flagAddressDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}
	if builder.RuntimeProvider == nil {
		return errRuntimeProvider
	}
	runtime, runtimeError := builder.RuntimeProvider()
	if runtimeError != nil {
		return fmt.Errorf(serveErrorTemplateConstant, runtimeError)
	}

	var metrics *telemetry.Metrics
	if builder.MetricsProvider != nil {
		metrics = builder.MetricsProvider()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	server, serverError := NewServer(Dependencies{Runtime: runtime, Metrics: metrics, Logger: builder.resolveLogger()})
	if serverError != nil {
		return fmt.Errorf(serveErrorTemplateConstant, serverError)
	}

	address, _ := command.Flags().GetString(flagAddressNameConstant)
	address = strings.TrimSpace(address)
	if len(address) == 0 {
		address = runtime.Configuration().Heartbeat.Address
	}

	executionContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runError := server.Run(executionContext, address); runError != nil {
		return fmt.Errorf(serveErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
