package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "v0.1.0"

type VersionInfo struct {
	Version   string
	GoVersion string
	Compiler  string
	Platform  string
}

func (info *VersionInfo) String() string {
	return fmt.Sprintf("{predict-api version: %s, Go version: %s, Compiler: %s, Platform: %s}",
		info.Version, info.GoVersion, info.Compiler, info.Platform)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of predict-api",
	Run: func(cmd *cobra.Command, args []string) {
		info := &VersionInfo{
			Version:   version,
			GoVersion: runtime.Version(),
			Compiler:  runtime.Compiler,
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
	},
}
