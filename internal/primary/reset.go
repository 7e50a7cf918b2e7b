package primary

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
	"github.com/temirov/whatgitbranch/internal/repository"
)

const (
	resetUseConstant                 = "reset"
	resetShortDescriptionConstant    = "Delete the primary repository override marker"
	resetLongDescriptionConstant     = "reset deletes the primary repository's override marker file and reports the head reference read from version control."
	resetWithoutMarkerTemplate       = "primary repository using git head ref; cannot reset: %w"
	resetFailedTemplateConstant      = "unable to reset primary head reference: %w"
	resetSucceededTemplateConstant   = "Deleted primary repository override; head reference is now %s.\n"
	resetUnresolvableMessageConstant = "Deleted primary repository override; head reference is unresolvable.\n"
)

// ResetCommandBuilder assembles the primary reset command.
type ResetCommandBuilder struct {
	resolver primaryResolver
}

// Build constructs the reset command.
func (builder *ResetCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   resetUseConstant,
		Short: resetShortDescriptionConstant,
		Long:  resetLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *ResetCommandBuilder) run(command *cobra.Command, _ []string) error {
	primary, primaryError := builder.resolver.resolve(command.Context())
	if primaryError != nil {
		return primaryError
	}

	resetError := primary.ResetOverride()
	switch {
	case errors.Is(resetError, repository.ErrOverrideNotPresent):
		return fmt.Errorf(resetWithoutMarkerTemplate, resetError)
	case resetError != nil:
		return fmt.Errorf(resetFailedTemplateConstant, resetError)
	}

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	if fallback := primary.HeadRef(); len(fallback) > 0 {
		reporter.Printf(resetSucceededTemplateConstant, fallback)
		return nil
	}
	reporter.Printf(resetUnresolvableMessageConstant)
	return nil
}
