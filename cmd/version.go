package cmd

import (
	"fmt"

	"github.com/haierkeys/issue-note-service/internal/app"
	"github.com/haierkeys/issue-note-service/pkg/util"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print out version info and exit. // 打印版本信息并退出。",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("v%s ( Git:%s ) BuildTime:%s Instance:%s\n", app.Version, app.GitTag, app.BuildTime, util.InstanceID(app.Name))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
