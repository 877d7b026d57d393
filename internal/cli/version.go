package cli

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		Short:                 "Print factory version",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, _ []string) {
			hash, ts := versionHashAndTimestamp()

			fmt.Fprintf(cmd.OutOrStdout(), "factory version: %s from %s\n", hash, ts)
		},
	}
}

// versionHashAndTimestamp returns the last git hash and commit timestamp.
func versionHashAndTimestamp() (string, string) {
	hash, timestamp, modified := readBuildInfo()

	if modified || hash == "" {
		return "@latest", time.Now().UTC().Format(time.RFC3339)
	}

	return hash, timestamp
}

// readBuildInfo returns the last commit hash, commit timestamp, and if the binary contains uncommitted code.
// `go run` and `go test` do not contain that info.
func readBuildInfo() (string, string, bool) {
	var (
		commitHash  string
		commitTS    string
		vcsModified bool
	)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", "", false
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commitHash = setting.Value
		case "vcs.time":
			commitTS = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value == "true"
		}
	}

	return commitHash, commitTS, vcsModified
}
