package directories

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/whatgitbranch/internal/cache"
	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/session"
)

const (
	clearCacheUseConstant              = "clear-cache"
	clearCacheShortDescriptionConstant = "Delete the cached directory list"
	clearCacheLongDescriptionConstant  = "clear-cache removes the cached directory list of the backend selected by the scanning setting."
	clearedMessageConstant             = "Cleared directories cache.\n"
	cacheUnavailableTemplateConstant   = "directories cache unavailable: %w"
	nothingToClearMessageConstant      = "no cached directories to clear"
	clearFailedTemplateConstant        = "unable to clear directories cache: %w"
	wrappedErrorTemplateConstant       = "%w: %w"
)

// ErrNothingToClear indicates the active backend holds no cached directories.
var ErrNothingToClear = errors.New(nothingToClearMessageConstant)

// ClearCacheCommandBuilder assembles the directories clear-cache command.
type ClearCacheCommandBuilder struct {
	LoggerProvider  LoggerProvider
	RuntimeProvider session.RuntimeProvider
}

// Build constructs the clear-cache command.
func (builder *ClearCacheCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   clearCacheUseConstant,
		Short: clearCacheShortDescriptionConstant,
		Long:  clearCacheLongDescriptionConstant,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *ClearCacheCommandBuilder) run(command *cobra.Command, arguments []string) error {
	runtime, maintenance, sessionError := maintenanceSession(command, arguments, builder.RuntimeProvider, resolveLogger(builder.LoggerProvider))
	if sessionError != nil {
		return sessionError
	}
	if cacheError := runtime.CacheError(); cacheError != nil {
		return fmt.Errorf(cacheUnavailableTemplateConstant, cacheError)
	}

	invalidateError := maintenance.Locator.InvalidateCache(command.Context())
	switch {
	case errors.Is(invalidateError, cache.ErrEntryNotFound):
		return fmt.Errorf(wrappedErrorTemplateConstant, ErrNothingToClear, invalidateError)
	case invalidateError != nil:
		return fmt.Errorf(clearFailedTemplateConstant, invalidateError)
	}

	shared.NewWriterReporter(command.OutOrStdout()).Printf(clearedMessageConstant)
	return nil
}
