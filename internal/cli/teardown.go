package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qiskit/previewctl/internal/ghoutput"
	"github.com/qiskit/previewctl/internal/uploader"
)

// newTeardownCommand creates the "teardown" command that removes the previews of a PR.
func newTeardownCommand(opts *Options) *cobra.Command {
	var prNumber int

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Delete every preview published for a pull request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			envCfg := teardownEnv{}
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("prNumber") && envPresent("PREVIEWCTL_PR_NUMBER") {
				prNumber = envCfg.PRNumber
			}
			if prNumber <= 0 {
				return fmt.Errorf("teardown requires a positive --prNumber")
			}

			cat, err := openCatalog(opts, logger)
			if err != nil {
				return err
			}

			deleted, err := uploader.Teardown(cmd.Context(), logger, cat, prNumber)
			if err != nil {
				return err
			}

			return ghoutput.FromEnv().Write(map[string]string{
				"deleted-count": strconv.Itoa(len(deleted)),
				"deleted-slugs": strings.Join(deleted, "\n"),
			})
		},
	}

	cmd.Flags().IntVar(&prNumber, "prNumber", 0, "Pull request number whose previews are deleted")

	return cmd
}
