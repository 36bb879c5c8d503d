package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped with -ldflags "-X github.com/abhisek/drillz/cmd.version=...".
// Unstamped builds fall back to the module version from build info.
var version = ""

func buildVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// buildRevision is the VCS commit the binary was built from, when known.
func buildRevision() (rev string, dirty bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the drillz version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("drillz", buildVersion())
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			return
		}
		if rev, dirty := buildRevision(); rev != "" {
			if dirty {
				rev += " (modified)"
			}
			fmt.Println("commit:", rev)
		}
		fmt.Printf("go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Also print commit and Go toolchain")
}
