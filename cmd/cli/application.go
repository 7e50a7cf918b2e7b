package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/whatgitbranch/internal/directories"
	"github.com/temirov/whatgitbranch/internal/heartbeat"
	"github.com/temirov/whatgitbranch/internal/listing"
	"github.com/temirov/whatgitbranch/internal/primary"
	"github.com/temirov/whatgitbranch/internal/session"
	"github.com/temirov/whatgitbranch/internal/telemetry"
	"github.com/temirov/whatgitbranch/internal/utils"
	pathutils "github.com/temirov/whatgitbranch/internal/utils/path"
)

const (
	applicationNameConstant                 = "what-git-branch"
	applicationShortDescriptionConstant     = "Report the branch or commit each tracked repository is on"
	applicationLongDescriptionConstant      = "what-git-branch finds repositories beneath a root, resolves their head references from VCS metadata or .what-git-branch override markers, and reports them on the command line or over a polling endpoint."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the application version and exit."
	versionOutputTemplateConstant           = "%s version: %s\n"
	unknownVersionConstant                  = "unknown"
	develVersionConstant                    = "(devel)"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	repositoriesConfigurationKeyConstant    = "repositories"
	environmentPrefixConstant               = "WHATGITBRANCH"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationRootFieldConstant          = "root"
	configurationScanWhenFieldConstant      = "scan_when"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	configurationValidationTemplateConstant = "unable to validate configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	runtimeCloseErrorTemplateConstant       = "unable to close directories cache: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	configurationNotLoadedMessageConstant   = "configuration not loaded"
	defaultConfigurationSearchPathConstant  = "."
	homeConfigurationSearchPathConstant     = "$HOME/.what-git-branch"
	rootCommandDebugMessageConstant         = "what-git-branch CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentsConstant               = "arguments"
)

var errConfigurationNotLoaded = errors.New(configurationNotLoadedMessageConstant)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common       ApplicationCommonConfiguration `mapstructure:"common"`
	Repositories session.Configuration          `mapstructure:"repositories"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, structured logger, and repository runtime.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	homeExpander          *pathutils.HomeExpander
	logger                *zap.Logger
	metrics               *telemetry.Metrics
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationLoaded   bool
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	versionFlagValue      bool
	runtime               *session.Runtime
	versionResolver       func(context.Context) string
	exitFunction          func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, homeConfigurationSearchPathConstant},
	)
	embeddedContent, embeddedType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedContent, embeddedType)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		homeExpander:        pathutils.NewHomeExpander(),
		logger:              zap.NewNop(),
		metrics:             telemetry.NewMetrics(),
		versionResolver:     resolveApplicationVersion,
		exitFunction:        os.Exit,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.Flags().BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	listBuilder := listing.CommandBuilder{
		LoggerProvider:  loggerProvider,
		RuntimeProvider: application.provideRuntime,
	}
	listCommand, listBuildError := listBuilder.Build()
	if listBuildError == nil {
		cobraCommand.AddCommand(listCommand)
	}

	directoriesBuilder := directories.CommandGroupBuilder{
		LoggerProvider:  loggerProvider,
		RuntimeProvider: application.provideRuntime,
	}
	directoriesCommand, directoriesBuildError := directoriesBuilder.Build()
	if directoriesBuildError == nil {
		cobraCommand.AddCommand(directoriesCommand)
	}

	primaryBuilder := primary.CommandGroupBuilder{
		LoggerProvider:  loggerProvider,
		RuntimeProvider: application.provideRuntime,
	}
	primaryCommand, primaryBuildError := primaryBuilder.Build()
	if primaryBuildError == nil {
		cobraCommand.AddCommand(primaryCommand)
	}

	serveBuilder := heartbeat.CommandBuilder{
		LoggerProvider:  loggerProvider,
		RuntimeProvider: application.provideRuntime,
		MetricsProvider: func() *telemetry.Metrics {
			return application.metrics
		},
	}
	serveCommand, serveBuildError := serveBuilder.Build()
	if serveBuildError == nil {
		cobraCommand.AddCommand(serveCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy, releases the directories cache, and flushes the logger.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if closeError := application.closeRuntime(); closeError != nil && executionError == nil {
		executionError = fmt.Errorf(runtimeCloseErrorTemplateConstant, closeError)
	}
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range session.DefaultConfigurationValues(repositoriesConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	application.configuration.Repositories = application.configuration.Repositories.Sanitize(application.homeExpander)
	if validationError := application.configuration.Repositories.Validate(); validationError != nil {
		return fmt.Errorf(configurationValidationTemplateConstant, validationError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(strings.TrimSpace(application.configuration.Common.LogLevel)),
		utils.LogFormat(strings.TrimSpace(application.configuration.Common.LogFormat)),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger
	application.configurationLoaded = true

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationRootFieldConstant, application.configuration.Repositories.Root),
		zap.String(configurationScanWhenFieldConstant, application.configuration.Repositories.Scan.When),
	)

	return nil
}

// provideRuntime opens the repository runtime on first use so help and version paths never touch the cache.
func (application *Application) provideRuntime() (*session.Runtime, error) {
	if !application.configurationLoaded {
		return nil, errConfigurationNotLoaded
	}
	if application.runtime == nil {
		application.runtime = session.NewRuntime(application.configuration.Repositories, session.Dependencies{
			Observer: application.metrics,
			Logger:   application.logger,
		})
	}
	return application.runtime, nil
}

func (application *Application) closeRuntime() error {
	if application.runtime == nil {
		return nil
	}
	closeError := application.runtime.Close()
	application.runtime = nil
	return closeError
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if application.versionFlagValue {
		fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.versionResolver(command.Context()))
		application.exitFunction(0)
		return nil
	}

	return command.Help()
}

func resolveApplicationVersion(context.Context) string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available {
		return unknownVersionConstant
	}
	version := strings.TrimSpace(buildInformation.Main.Version)
	if len(version) == 0 || version == develVersionConstant {
		return unknownVersionConstant
	}
	return version
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
