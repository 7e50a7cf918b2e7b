package primary

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/whatgitbranch/internal/repos/shared"
)

const (
	identifyUseConstant              = "identify [ref|path]"
	identifyShortDescriptionConstant = "Print the primary repository head reference or path"
	identifyRefArgumentConstant      = "ref"
	identifyPathArgumentConstant     = "path"
	lineTemplateConstant             = "%s\n"
)

// IdentifyCommandBuilder assembles the primary identify command.
type IdentifyCommandBuilder struct {
	resolver primaryResolver
}

// Build constructs the identify command.
func (builder *IdentifyCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:       identifyUseConstant,
		Short:     identifyShortDescriptionConstant,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{identifyRefArgumentConstant, identifyPathArgumentConstant},
		RunE:      builder.run,
	}
	return command, nil
}

func (builder *IdentifyCommandBuilder) run(command *cobra.Command, arguments []string) error {
	requested := identifyRefArgumentConstant
	if len(arguments) > 0 {
		requested = arguments[0]
	}
	if requested != identifyRefArgumentConstant && requested != identifyPathArgumentConstant {
		return fmt.Errorf(unrecognizedArgumentTemplate, ErrUnrecognizedSubcommand, requested)
	}

	primary, primaryError := builder.resolver.resolve(command.Context())
	if primaryError != nil {
		return primaryError
	}

	reporter := shared.NewWriterReporter(command.OutOrStdout())
	if requested == identifyPathArgumentConstant {
		reporter.Printf(lineTemplateConstant, primary.Path())
		return nil
	}
	reporter.Printf(lineTemplateConstant, primary.HeadRef())
	return nil
}
