package main

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		logLevelFlag string
		urlFlag      string
		kFlag        int
		outputFlag   string
		healthFlag   bool
	)

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "clipforge",
		Short:         "Select and render the most clip-worthy moments of a long-form video",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(outputFlag) != "" {
				expanded, err := config.ExpandPath(outputFlag)
				if err != nil {
					return err
				}
				cfg.Paths.OutputDir = expanded
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
			}

			if healthFlag {
				return runHealthCheck(cmd, cfg)
			}
			if strings.TrimSpace(urlFlag) == "" {
				return errors.New("--url is required unless --health-check is set")
			}
			return runPipeline(cmd, cfg, urlFlag, kFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")
	rootCmd.Flags().StringVar(&urlFlag, "url", "", "Source video URL")
	rootCmd.Flags().IntVar(&kFlag, "k", 5, "Number of clips to emit")
	rootCmd.Flags().StringVar(&outputFlag, "output-dir", "", "Override the configured output directory")
	rootCmd.Flags().BoolVar(&healthFlag, "health-check", false, "Check service and binary readiness, then exit")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}
