package directories

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/session"
)

const (
	scanUseConstant              = "scan"
	scanShortDescriptionConstant = "Scan the configured root for repositories"
	scanLongDescriptionConstant  = "scan walks the configured root regardless of the cache, stores the result, and prints how many directories were found."
	foundSingularTemplate        = "Found %d directory.\n"
	foundPluralTemplate          = "Found %d directories.\n"
	scanErrorTemplateConstant    = "directory scan failed: %w"
)

// ScanCommandBuilder assembles the directories scan command.
type ScanCommandBuilder struct {
	LoggerProvider  LoggerProvider
	RuntimeProvider session.RuntimeProvider
}

// Build constructs the scan command.
func (builder *ScanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   scanUseConstant,
		Short: scanShortDescriptionConstant,
		Long:  scanLongDescriptionConstant,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *ScanCommandBuilder) run(command *cobra.Command, arguments []string) error {
	_, maintenance, sessionError := maintenanceSession(command, arguments, builder.RuntimeProvider, resolveLogger(builder.LoggerProvider))
	if sessionError != nil {
		return sessionError
	}

	directories, scanError := maintenance.Locator.Scan(command.Context())
	if directories != nil || scanError == nil {
		reporter := shared.NewWriterReporter(command.OutOrStdout())
		reporter.Printf(FoundDirectoriesTemplate(len(directories)), len(directories))
	}
	if scanError != nil {
		return fmt.Errorf(scanErrorTemplateConstant, scanError)
	}
	return nil
}

// FoundDirectoriesTemplate returns the summary template matching count.
func FoundDirectoriesTemplate(count int) string {
	if count == 1 {
		return foundSingularTemplate
	}
	return foundPluralTemplate
}
