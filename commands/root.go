package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"farmcare-server-go/client"
	"farmcare-server-go/config"
	"farmcare-server-go/logging"
)

// NewRootCommand builds the farmcare command line.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "farmcare",
		Usage: "Farmer customer-care desk: API server, web UI and API client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
			},
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newWebCommand(),
			newFarmersCommand(),
			newTicketsCommand(),
			newReportsCommand(),
		},
	}
}

// appEnv is what every subcommand needs once flags are parsed. close
// releases the log file, if any.
type appEnv struct {
	cfg   *config.Config
	log   *logrus.Logger
	out   io.Writer
	close func() error
}

func setup(cmd *cli.Command) (*appEnv, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	log, closeLog, err := logging.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &appEnv{cfg: cfg, log: log, out: cmd.Root().Writer, close: closeLog}, nil
}

// withEnv runs fn with the parsed environment and closes it afterwards.
func withEnv(fn func(ctx context.Context, cmd *cli.Command, env *appEnv) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.close()
		return fn(ctx, cmd, env)
	}
}

func (e *appEnv) api() *client.Client {
	return client.New(e.cfg.Client.BaseURL)
}
