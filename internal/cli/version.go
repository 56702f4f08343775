package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/buildinfo"
)

var (
	versionJSON  bool
	versionShort bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show Stepwise version and build information",
	Long: `Display the version, git commit, build date, Go version and platform of
this Stepwise binary. Builds without release ldflags report the commit and
date from the VCS stamp of the checkout they were built in.

Use --short in scripts that compare versions.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.GetInfo()
		out := cmd.OutOrStdout()

		if versionShort {
			fmt.Fprintln(out, info.Version)
			return nil
		}
		if versionJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintln(out, info.String())
		if info.Dev() {
			fmt.Fprintf(out, "%s %s (development build)\n", info.GoVersion, info.Platform)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output version info as JSON")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.MarkFlagsMutuallyExclusive("json", "short")
	rootCmd.AddCommand(versionCmd)
}
