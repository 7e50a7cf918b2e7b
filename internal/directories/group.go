package directories

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/session"
)

const (
	groupUseConstant                = "directories"
	groupShortDescriptionConstant   = "Maintain the cached repository directory list"
	groupLongDescriptionConstant    = "directories scans the configured root for repositories or clears the cached result."
	runtimeRequiredMessageConstant  = "repository runtime is not configured"
	unrecognizedSubcommandMessage   = "Unrecognized subcommand"
	unrecognizedSubcommandTemplate  = "%w: %s"
	unexpectedArgumentsTemplate     = "%s does not accept positional arguments"
	sessionCreationTemplateConstant = "unable to prepare directories session: %w"
	maintenanceSessionLogMessage    = "Prepared maintenance session"
	commandLogFieldConstant         = "command"
	backendLogFieldConstant         = "backend"
)

var (
	errRuntimeRequired = errors.New(runtimeRequiredMessageConstant)
	// ErrUnrecognizedSubcommand indicates an unknown directories subcommand.
	ErrUnrecognizedSubcommand = errors.New(unrecognizedSubcommandMessage)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandGroupBuilder assembles the directories command group.
type CommandGroupBuilder struct {
	LoggerProvider  LoggerProvider
	RuntimeProvider session.RuntimeProvider
}

// Build constructs the directories command hierarchy.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
		Args:  cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				return command.Help()
			}
			return fmt.Errorf(unrecognizedSubcommandTemplate, ErrUnrecognizedSubcommand, arguments[0])
		},
	}

	scanBuilder := ScanCommandBuilder{LoggerProvider: builder.LoggerProvider, RuntimeProvider: builder.RuntimeProvider}
	scanCommand, scanError := scanBuilder.Build()
	if scanError != nil {
		return nil, scanError
	}
	command.AddCommand(scanCommand)

	clearBuilder := ClearCacheCommandBuilder{LoggerProvider: builder.LoggerProvider, RuntimeProvider: builder.RuntimeProvider}
	clearCommand, clearError := clearBuilder.Build()
	if clearError != nil {
		return nil, clearError
	}
	command.AddCommand(clearCommand)

	return command, nil
}

func maintenanceSession(command *cobra.Command, arguments []string, provider session.RuntimeProvider, logger *zap.Logger) (*session.Runtime, *session.Session, error) {
	if len(arguments) > 0 {
		return nil, nil, fmt.Errorf(unexpectedArgumentsTemplate, command.Name())
	}
	if provider == nil {
		return nil, nil, errRuntimeRequired
	}
	runtime, runtimeError := provider()
	if runtimeError != nil {
		return nil, nil, fmt.Errorf(sessionCreationTemplateConstant, runtimeError)
	}
	maintenance, sessionError := runtime.NewSession(locator.InvocationMaintenance)
	if sessionError != nil {
		return nil, nil, fmt.Errorf(sessionCreationTemplateConstant, sessionError)
	}
	logger.Debug(
		maintenanceSessionLogMessage,
		zap.String(commandLogFieldConstant, command.Name()),
		zap.String(backendLogFieldConstant, maintenance.Locator.CacheBackend().String()),
	)
	return runtime, maintenance, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
