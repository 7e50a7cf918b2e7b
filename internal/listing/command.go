package listing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/locator"
	"github.com/temirov/whatgitbranch/internal/session"
	"github.com/temirov/whatgitbranch/internal/utils/flags"
)

const (
	commandUseConstant                 = "list"
	commandShortDescriptionConstant    = "List repositories and their head references"
	commandLongDescriptionConstant     = "list prints every tracked repository with its branch or short commit, sorted naturally by name. The primary repository is highlighted in table output."
	flagFormatNameConstant             = "format"
	flagFormatDescriptionConstant      = "Output format"
	flagFieldsNameConstant             = "fields"
	flagFieldsDescriptionConstant      = "Comma-separated columns to print"
	flagNoColorNameConstant            = "no-color"
	flagNoColorDescriptionConstant     = "Disable highlighting of the primary repository"
	unexpectedArgumentsMessageConstant = "list does not accept positional arguments"
	runtimeRequiredMessageConstant     = "repository runtime is not configured"
	listErrorTemplateConstant          = "unable to list repositories: %w"
	listedLogMessage                   = "Listed repositories"
	countLogFieldConstant              = "count"
	formatLogFieldConstant             = "format"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)
	errRuntimeRequired     = errors.New(runtimeRequiredMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the list command.
type CommandBuilder struct {
	LoggerProvider  LoggerProvider
	RuntimeProvider session.RuntimeProvider
}

// Build constructs the list command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagFormatNameConstant, string(FormatTable), flags.FormatChoiceUsage(string(FormatTable), FormatValues(), flagFormatDescriptionConstant))
	command.Flags().StringSlice(flagFieldsNameConstant, DefaultFields(), flags.FormatChoiceUsage("", FieldValues(), flagFieldsDescriptionConstant))
	command.Flags().Bool(flagNoColorNameConstant, false, flagNoColorDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	renderer, rendererError := builder.parseRenderer(command)
	if rendererError != nil {
		return rendererError
	}

	if builder.RuntimeProvider == nil {
		return errRuntimeRequired
	}
	runtime, runtimeError := builder.RuntimeProvider()
	if runtimeError != nil {
		return fmt.Errorf(listErrorTemplateConstant, runtimeError)
	}

	listSession, sessionError := runtime.NewSession(locator.InvocationCommandLine)
	if sessionError != nil {
		return fmt.Errorf(listErrorTemplateConstant, sessionError)
	}

	rows := BuildRows(listSession.Coordinator.SortedRepositories(command.Context()), listSession.Locator.Root())
	if renderError := renderer.Render(command.OutOrStdout(), rows); renderError != nil {
		return fmt.Errorf(listErrorTemplateConstant, renderError)
	}

	builder.resolveLogger().Debug(listedLogMessage, zap.Int(countLogFieldConstant, len(rows)), zap.String(formatLogFieldConstant, string(renderer.Format)))
	return nil
}

func (builder *CommandBuilder) parseRenderer(command *cobra.Command) (Renderer, error) {
	formatValue, _ := command.Flags().GetString(flagFormatNameConstant)
	format, formatError := flags.ParseChoice(formatValue, FormatValues())
	if formatError != nil {
		return Renderer{}, formatError
	}

	fieldValues, _ := command.Flags().GetStringSlice(flagFieldsNameConstant)
	fields := make([]string, 0, len(fieldValues))
	for _, fieldValue := range lo.Compact(lo.Map(fieldValues, func(value string, _ int) string { return strings.TrimSpace(value) })) {
		field, fieldError := flags.ParseChoice(fieldValue, FieldValues())
		if fieldError != nil {
			return Renderer{}, fieldError
		}
		fields = append(fields, field)
	}

	highlight := color.New(color.FgGreen, color.Bold)
	if noColor, _ := command.Flags().GetBool(flagNoColorNameConstant); noColor {
		highlight.DisableColor()
	}

	return Renderer{Format: Format(format), Fields: lo.Uniq(fields), Highlight: highlight}, nil
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
