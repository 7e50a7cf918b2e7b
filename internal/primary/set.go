package primary

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/whatgitbranch/internal/repos/dependencies"
	"github.com/temirov/whatgitbranch/internal/repos/shared"
)

const (
	setUseConstant                 = "set <ref>"
	setShortDescriptionConstant    = "Write the primary repository override marker"
	setLongDescriptionConstant     = "set writes the head reference to the primary repository's override marker file. Confirmation is requested when no marker existed before."
	flagAssumeYesNameConstant      = "yes"
	flagAssumeYesDescription       = "Write the marker without prompting"
	confirmationPromptTemplate     = "Create override marker %s? [y/N] "
	setDeclinedMessageConstant     = "Primary repository head reference unchanged.\n"
	setSucceededTemplateConstant   = "Set primary repository head reference to %s.\n"
	setPromptFailedTemplate        = "unable to read confirmation: %w"
	setWriteFailedTemplateConstant = "unable to set primary head reference: %w"
)

// SetCommandBuilder assembles the primary set command.
type SetCommandBuilder struct {
	resolver primaryResolver
	Prompter shared.ConfirmationPrompter
}

// Build constructs the set command.
func (builder *SetCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   setUseConstant,
		Short: setShortDescriptionConstant,
		Long:  setLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	command.Flags().Bool(flagAssumeYesNameConstant, false, flagAssumeYesDescription)
	return command, nil
}

func (builder *SetCommandBuilder) run(command *cobra.Command, arguments []string) error {
	primary, primaryError := builder.resolver.resolve(command.Context())
	if primaryError != nil {
		return primaryError
	}

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	assumeYes, _ := command.Flags().GetBool(flagAssumeYesNameConstant)
	policy := shared.ConfirmationPolicyFromBool(assumeYes)
	if policy.ShouldPrompt() && !primary.HasOverride() {
		prompter := dependencies.ResolveConfirmationPrompter(builder.Prompter, command.InOrStdin(), command.OutOrStdout())
		confirmed, promptError := prompter.Confirm(fmt.Sprintf(confirmationPromptTemplate, primary.OverrideFilePath()))
		if promptError != nil {
			return fmt.Errorf(setPromptFailedTemplate, promptError)
		}
		if !confirmed {
			reporter.Printf(setDeclinedMessageConstant)
			return nil
		}
	}

	if overrideError := primary.SetOverride(arguments[0]); overrideError != nil {
		return fmt.Errorf(setWriteFailedTemplateConstant, overrideError)
	}
	reporter.Printf(setSucceededTemplateConstant, primary.HeadRef())
	return nil
}
