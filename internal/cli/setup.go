package cli

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qiskit/previewctl/internal/ghoutput"
	"github.com/qiskit/previewctl/internal/githubapi"
	"github.com/qiskit/previewctl/internal/uploader"
)

// newSetupCommand creates the "setup" command that publishes previews for a PR.
func newSetupCommand(opts *Options) *cobra.Command {
	var (
		prNumber             int
		changedFiles         []string
		configPath           string
		accessibleToInstance string
		messagePath          string
		contentRoot          string
		postComment          bool
	)

	cmd := &cobra.Command{
		Use:   "setup [changed files...]",
		Short: "Publish previews of the tutorials changed by a pull request",
		Long: "setup selects the manifest tutorials whose directory holds a changed file, publishes a preview " +
			"record for each of them and writes the PR comment listing the preview links.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			envCfg := setupEnv{}
			if err := parseEnv(&envCfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("prNumber") && envPresent("PREVIEWCTL_PR_NUMBER") {
				prNumber = envCfg.PRNumber
			}
			_, envFiles := os.LookupEnv("PREVIEWCTL_CHANGED_FILES")
			filesGiven := cmd.Flags().Changed("changedFiles") || len(args) > 0 || envFiles
			if !cmd.Flags().Changed("changedFiles") && len(args) == 0 && envPresent("PREVIEWCTL_CHANGED_FILES") {
				changedFiles = envCfg.ChangedFiles
			}
			if !cmd.Flags().Changed("configPath") && envPresent("PREVIEWCTL_CONFIG_PATH") {
				configPath = envCfg.ConfigPath
			}
			if !cmd.Flags().Changed("accessibleToInstance") && envPresent("PREVIEWCTL_ACCESSIBLE_TO_INSTANCE") {
				accessibleToInstance = envCfg.AccessibleToInstance
			}
			if !cmd.Flags().Changed("messagePath") && envPresent("PREVIEWCTL_MESSAGE_PATH") {
				messagePath = envCfg.MessagePath
			}

			files := trimPaths(append(slices.Clone(changedFiles), args...))
			if prNumber <= 0 {
				return fmt.Errorf("setup requires a positive --prNumber")
			}
			if !filesGiven {
				return fmt.Errorf("setup requires --changedFiles, positional paths or PREVIEWCTL_CHANGED_FILES")
			}
			if len(files) == 0 {
				logger.Warn("changed file list is empty, nothing will be published", "pr", prNumber)
			}

			if err := uploader.RemoveMessage(messagePath); err != nil {
				return err
			}
			cat, err := openCatalog(opts, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := uploader.Setup(ctx, logger, cat, uploader.SetupOptions{
				PRNumber:             prNumber,
				ChangedFiles:         files,
				ConfigPath:           configPath,
				AccessibleToInstance: accessibleToInstance,
				MessagePath:          messagePath,
				ContentRoot:          contentRoot,
			})
			if err != nil {
				return err
			}

			if err := ghoutput.FromEnv().Write(map[string]string{
				"preview-count": strconv.Itoa(len(res.Previews)),
				"message-path":  messagePath,
				"message":       res.Message,
			}); err != nil {
				return err
			}

			if !postComment {
				return nil
			}
			if len(res.Previews) == 0 {
				logger.Info("no previews published, skipping PR comment", "pr", prNumber)
				return nil
			}
			if opts.DryRun {
				logger.Info("dry run: PR comment not posted", "pr", prNumber)
				return nil
			}

			ghEnv := commentEnv{}
			if err := parseEnv(&ghEnv); err != nil {
				return err
			}
			token, err := githubapi.LookupToken(os.Getenv)
			if err != nil {
				return err
			}
			gh, err := githubapi.NewClient(logger, token, ghEnv.Repo)
			if err != nil {
				return err
			}
			return gh.CommentPR(ctx, prNumber, res.Message)
		},
	}

	cmd.Flags().IntVar(&prNumber, "prNumber", 0, "Pull request number the previews belong to")
	cmd.Flags().StringArrayVar(&changedFiles, "changedFiles", nil, "Path changed by the pull request (repeatable)")
	cmd.Flags().StringVar(&configPath, "configPath", defaultConfigPath, "Path to the tutorial manifest")
	cmd.Flags().StringVar(&accessibleToInstance, "accessibleToInstance", defaultAccessibleInstance, "Instance allowed to view the previews")
	cmd.Flags().StringVar(&messagePath, "messagePath", defaultMessagePath, "File the PR comment body is written to")
	cmd.Flags().StringVar(&contentRoot, "contentRoot", ".", "Directory that manifest local paths are relative to")
	cmd.Flags().BoolVar(&postComment, "comment", false, "Post the preview links as a PR comment via gh")

	return cmd
}

// trimPaths drops blank entries and surrounding whitespace from path lists.
func trimPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
