// Package main is the netdemo application entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"netdemo/internal"
	"netdemo/internal/app/apps"
	"netdemo/internal/app/cfg"
	"netdemo/internal/pkg/log"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CLI command definitions.
var (
	logger logrus.FieldLogger = logrus.StandardLogger()

	rootCmd = &cobra.Command{
		Use:   "netdemo",
		Short: "Relays positional state between two networked participants.",
		RunE: func(*cobra.Command, []string) error {
			return nil
		},
	}

	clientCmd = &cobra.Command{
		Use:   "client <server_ip> <port>",
		Short: "Starts a netdemo client.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("not enough arguments")
			}
			_, err := parsePort(args[1])
			return err
		},
		RunE: runCmd,
	}

	serverCmd = &cobra.Command{
		Use:   "server <port>",
		Short: "Starts a netdemo relay server.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("not enough arguments")
			}
			_, err := parsePort(args[0])
			return err
		},
		RunE: runCmd,
	}
)

func parsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrap(err, "parse port argument failed")
	}
	if port < 1 {
		return 0, errors.New("invalid port number")
	}
	return uint16(port), nil
}

func newApp(_ context.Context, cmd *cobra.Command, args []string) (apps.App, []string, error) {
	switch cmd.Name() {
	case "client":
		port, err := parsePort(args[1])
		if err != nil {
			return nil, nil, err
		}
		app, err := apps.NewClientApp(cfg.FromEnv(), cfg.NewHostCfg(args[0]), cfg.NewPortCfg(port))
		if err != nil {
			return nil, nil, errors.Wrap(err, "new client app failed")
		}
		return app, args[2:], nil
	case "server":
		port, err := parsePort(args[0])
		if err != nil {
			return nil, nil, err
		}
		app, err := apps.NewServerApp(cfg.FromEnv(), cfg.NewPortCfg(port))
		if err != nil {
			return nil, nil, errors.Wrap(err, "new server app failed")
		}
		return app, args[1:], nil
	default:
		return nil, nil, fmt.Errorf("unknown command: %s", cmd.Name())
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := chainedCheck(
		ctx,
		envCheck,
	); err != nil {
		return errors.Wrap(err, "chained check failed")
	}
	app, args, err := newApp(ctx, cmd, args)
	if err != nil {
		return errors.Wrapf(err, "new %s app failed", cmd.Name())
	}
	return errors.Wrap(app.Run(ctx, args), "run app failed")
}

func envCheck(ctx context.Context) error {
	err := internal.ValidateEnv()
	if err != nil {
		return errors.Wrap(err, "validate env failed")
	}
	log.SetLogger(internal.LogLevel)
	return nil
}

func chainedCheck(ctx context.Context, checks ...func(context.Context) error) error {
	for _, check := range checks {
		err := check(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	if err := internal.LoadDotEnv(); err != nil {
		logger.Fatalln(err)
	}

	err := internal.RegisterCommandFlags(rootCmd, []*internal.Flag{
		&internal.EnvFlag,
		&internal.LogLevelFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(clientCmd, []*internal.Flag{
		&internal.TickMSFlag,
		&internal.TicksFlag,
		&internal.DialTimeoutMSFlag,
		&internal.IOTimeoutMSFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	err = internal.RegisterCommandFlags(serverCmd, []*internal.Flag{
		&internal.HealthPortFlag,
		&internal.MaxPlayersFlag,
		&internal.PollTimeoutMSFlag,
		&internal.FrameTimeoutMSFlag,
		&internal.PlaceholderFlag,
	})
	if err != nil {
		logger.Fatalln(err)
	}

	rootCmd.AddCommand(
		clientCmd,
		serverCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Fatal(errors.Wrap(err, "execute root command failed"))
	}
}
