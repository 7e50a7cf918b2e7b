package primary

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
	"github.com/temirov/whatgitbranch/internal/session"
)

const (
	groupUseConstant                = "primary"
	groupShortDescriptionConstant   = "Inspect or override the primary repository head reference"
	groupLongDescriptionConstant    = "primary prints, sets, or resets the head reference of the repository designated as primary."
	noPrimaryMessageConstant        = "No primary repository."
	unrecognizedSubcommandMessage   = "Unrecognized subcommand"
	unrecognizedArgumentTemplate    = "%w: %s"
	runtimeRequiredMessageConstant  = "repository runtime is not configured"
	sessionCreationTemplateConstant = "unable to prepare primary session: %w"
	primaryResolvedLogMessage       = "Resolved primary repository"
	directoryLogFieldConstant       = "directory"
	sourceLogFieldConstant          = "source"
)

var (
	// ErrNoPrimary indicates no repository is configured or inferable as primary.
	ErrNoPrimary = errors.New(noPrimaryMessageConstant)
	// ErrUnrecognizedSubcommand indicates an unknown subcommand or argument.
	ErrUnrecognizedSubcommand = errors.New(unrecognizedSubcommandMessage)

	errRuntimeRequired = errors.New(runtimeRequiredMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandGroupBuilder assembles the primary command group.
type CommandGroupBuilder struct {
	LoggerProvider  LoggerProvider
	RuntimeProvider session.RuntimeProvider
	Prompter        shared.ConfirmationPrompter
}

// Build constructs the primary command hierarchy.
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
			return fmt.Errorf(unrecognizedArgumentTemplate, ErrUnrecognizedSubcommand, arguments[0])
		},
	}

	resolver := primaryResolver{loggerProvider: builder.LoggerProvider, runtimeProvider: builder.RuntimeProvider}

	identifyBuilder := IdentifyCommandBuilder{resolver: resolver}
	identifyCommand, identifyError := identifyBuilder.Build()
	if identifyError != nil {
		return nil, identifyError
	}
	command.AddCommand(identifyCommand)

	setBuilder := SetCommandBuilder{resolver: resolver, Prompter: builder.Prompter}
	setCommand, setError := setBuilder.Build()
	if setError != nil {
		return nil, setError
	}
	command.AddCommand(setCommand)

	resetBuilder := ResetCommandBuilder{resolver: resolver}
	resetCommand, resetError := resetBuilder.Build()
	if resetError != nil {
		return nil, resetError
	}
	command.AddCommand(resetCommand)

	return command, nil
}

type primaryResolver struct {
	loggerProvider  LoggerProvider
	runtimeProvider session.RuntimeProvider
}

// resolve returns the freshly resolved primary repository.
func (resolver primaryResolver) resolve(executionContext context.Context) (*repository.Repository, error) {
	if resolver.runtimeProvider == nil {
		return nil, errRuntimeRequired
	}
	runtime, runtimeError := resolver.runtimeProvider()
	if runtimeError != nil {
		return nil, fmt.Errorf(sessionCreationTemplateConstant, runtimeError)
	}
	commandSession, sessionError := runtime.NewSession(locator.InvocationCommandLine)
	if sessionError != nil {
		return nil, fmt.Errorf(sessionCreationTemplateConstant, sessionError)
	}

	primary := commandSession.Coordinator.Primary(executionContext)
	if primary == nil {
		return nil, ErrNoPrimary
	}
	primary.ResolveHeadRef()

	resolver.logger().Debug(
		primaryResolvedLogMessage,
		zap.String(directoryLogFieldConstant, primary.Path()),
		zap.String(sourceLogFieldConstant, primary.Source().String()),
	)
	return primary, nil
}

func (resolver primaryResolver) logger() *zap.Logger {
	if resolver.loggerProvider == nil {
		return zap.NewNop()
	}
	logger := resolver.loggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
