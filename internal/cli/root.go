package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// NewRootCommand creates the `filegate` command. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	serve := NewServeOptions()

	cmd := &cobra.Command{
		Use:           "filegate [command]",
		Version:       versionInfo(),
		Short:         "HTTP gateway for uploading, listing and deleting bucket objects",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.Execute(cmd, args)
		},
	}
	serve.AddFlags(cmd)

	cmd.AddCommand(NewServeCommand(NewServeOptions()))
	return cmd
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}
