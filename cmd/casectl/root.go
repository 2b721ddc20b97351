package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Mihklz/casetrail/internal/agent"
	"github.com/Mihklz/casetrail/internal/config"
	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/version"
)

// options общие флаги всех подкоманд
type options struct {
	agent    config.AgentConfig
	logLevel string
}

func (o *options) client() *agent.Client {
	return agent.NewClient(o.agent)
}

func newRootCmd() *cobra.Command {
	opts := &options{agent: config.DefaultAgentConfig()}
	// Переменные окружения задают значения по умолчанию для флагов
	if v := os.Getenv("ADDRESS"); v != "" {
		opts.agent.ServerAddr = v
	}
	if v := os.Getenv("KEY"); v != "" {
		opts.agent.Key = v
	}

	root := &cobra.Command{
		Use:          "casectl",
		Short:        "casetrail host client",
		Long:         "casectl publishes events to a casetrail host, lists its channels, simulates a scheduler and runs migrations.",
		SilenceUsage: true,
		Version:      version.BuildVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Initialize(opts.logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.agent.ServerAddr, "server", "a", opts.agent.ServerAddr, "casetrail host address")
	pf.StringVarP(&opts.agent.Key, "key", "k", opts.agent.Key, "key for request signature")
	pf.DurationVar(&opts.agent.Timeout, "timeout", opts.agent.Timeout, "request timeout")
	pf.BoolVar(&opts.agent.Gzip, "gzip", opts.agent.Gzip, "compress request bodies")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newChannelsCmd(opts))
	root.AddCommand(newPublishCmd(opts))
	root.AddCommand(newSimulateCmd(opts))
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.Fprint(cmd.OutOrStdout())
		},
	}
}
