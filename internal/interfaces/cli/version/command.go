package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/subeth/subeth/internal/shared/version"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			build := "dev build"
			if version.IsRelease() {
				build = "release"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subeth %s (%s, %s, %s/%s)\n",
				version.Current(), build, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
