package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// 运维子命令：建表、手动扫描、签发令牌

func init() {
	var configPath string

	migrateCmd := &cobra.Command{
		Use:   "migrate [-c config_file]",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			// NewApp 会执行建表
			_, a, err := bootstrap(path, nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())
			bootstrapLogger.Info("schema is up to date", zap.String("database", a.Config().Database.Type))
			return nil
		},
	}

	var sweepTimeout time.Duration
	sweepCmd := &cobra.Command{
		Use:   "sweep [-c config_file]",
		Short: "Deliver due deadline reminders once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			_, a, err := bootstrap(path, nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())

			ctx, cancel := context.WithTimeout(cmd.Context(), sweepTimeout)
			defer cancel()
			result, err := a.SweepService.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("total=%d sent=%d failed=%d exhausted=%d skipped=%d\n", result.Total, result.Sent, result.Failed, result.Exhausted, result.Skipped)
			return nil
		},
	}
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 5*time.Minute, "sweep timeout")

	var uid, nickname string
	tokenCmd := &cobra.Command{
		Use:   "token --uid user_id [-c config_file]",
		Short: "Issue an auth token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uid == "" {
				return fmt.Errorf("--uid is required")
			}
			path, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			_, a, err := bootstrap(path, nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background())

			if nickname == "" {
				nickname = uid
			}
			token, err := a.TokenManager.Generate(uid, nickname, "")
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&uid, "uid", "", "user id")
	tokenCmd.Flags().StringVar(&nickname, "nickname", "", "nickname, defaults to uid")

	for _, c := range []*cobra.Command{migrateCmd, sweepCmd, tokenCmd} {
		c.Flags().StringVarP(&configPath, "config", "c", "", "config file")
		rootCmd.AddCommand(c)
	}
}
