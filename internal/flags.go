// Package internal holds the runtime settings shared by the netdemo commands.
//
// Every setting is a package variable with a built-in default. Registering it
// as a command flag makes the matching NETDEMO_* environment variable (or a
// .env file entry) override that default, and the flag override both.
package internal

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"netdemo/internal/pkg/validate"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Runtime settings.
var (
	Env      = "development"
	LogLevel = "error"

	HealthPort = 0

	MaxPlayers     = 2
	PollTimeoutMS  = 250
	FrameTimeoutMS = 1000
	Placeholder    = false

	TickMS        = 4
	Ticks         = 0
	DialTimeoutMS = 5000
	IOTimeoutMS   = 5000
)

// Flag binds a runtime setting to a command line flag and an environment variable.
type Flag struct {
	Name   string
	Usage  string
	EnvVar string
	// Value points at the setting; its current value is the default.
	Value any
}

// Flag definitions.
var (
	EnvFlag = Flag{
		Name:   "env",
		Usage:  "deployment environment: development, test or production",
		EnvVar: "NETDEMO_ENV",
		Value:  &Env,
	}
	LogLevelFlag = Flag{
		Name:   "log-level",
		Usage:  "log level: trace, debug, info, warn or error",
		EnvVar: "NETDEMO_LOG_LEVEL",
		Value:  &LogLevel,
	}
	HealthPortFlag = Flag{
		Name:   "health-port",
		Usage:  "port of the gRPC health endpoint, 0 disables it",
		EnvVar: "NETDEMO_HEALTH_PORT",
		Value:  &HealthPort,
	}
	MaxPlayersFlag = Flag{
		Name:   "max-players",
		Usage:  "number of peer slots",
		EnvVar: "NETDEMO_MAX_PLAYERS",
		Value:  &MaxPlayers,
	}
	PollTimeoutMSFlag = Flag{
		Name:   "poll-timeout-ms",
		Usage:  "longest wait for socket activity in milliseconds",
		EnvVar: "NETDEMO_POLL_TIMEOUT_MS",
		Value:  &PollTimeoutMS,
	}
	FrameTimeoutMSFlag = Flag{
		Name:   "frame-timeout-ms",
		Usage:  "longest wait for the rest of a started snapshot, and for each relay write, in milliseconds",
		EnvVar: "NETDEMO_FRAME_TIMEOUT_MS",
		Value:  &FrameTimeoutMS,
	}
	PlaceholderFlag = Flag{
		Name:   "placeholder",
		Usage:  "answer a peer that is alone with a placeholder snapshot",
		EnvVar: "NETDEMO_PLACEHOLDER",
		Value:  &Placeholder,
	}
	TickMSFlag = Flag{
		Name:   "tick-ms",
		Usage:  "client tick interval in milliseconds",
		EnvVar: "NETDEMO_TICK_MS",
		Value:  &TickMS,
	}
	TicksFlag = Flag{
		Name:   "ticks",
		Usage:  "number of ticks to run, 0 runs until interrupted",
		EnvVar: "NETDEMO_TICKS",
		Value:  &Ticks,
	}
	DialTimeoutMSFlag = Flag{
		Name:   "dial-timeout-ms",
		Usage:  "client connection timeout in milliseconds",
		EnvVar: "NETDEMO_DIAL_TIMEOUT_MS",
		Value:  &DialTimeoutMS,
	}
	IOTimeoutMSFlag = Flag{
		Name:   "io-timeout-ms",
		Usage:  "client send/receive timeout per tick in milliseconds; on timeout the client goes offline, so a client with no partner stops syncing after it. 0 disables it",
		EnvVar: "NETDEMO_IO_TIMEOUT_MS",
		Value:  &IOTimeoutMS,
	}
)

// RegisterCommandFlags registers flags as persistent flags of cmd.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	for _, f := range flags {
		env, hasEnv := os.LookupEnv(f.EnvVar)
		usage := fmt.Sprintf("%s (env %s)", f.Usage, f.EnvVar)
		switch v := f.Value.(type) {
		case *string:
			def := *v
			if hasEnv {
				def = env
			}
			cmd.PersistentFlags().StringVar(v, f.Name, def, usage)
		case *int:
			def := *v
			if hasEnv {
				n, err := strconv.Atoi(env)
				if err != nil {
					return errors.Wrapf(err, "parse %s failed", f.EnvVar)
				}
				def = n
			}
			cmd.PersistentFlags().IntVar(v, f.Name, def, usage)
		case *bool:
			def := *v
			if hasEnv {
				b, err := strconv.ParseBool(env)
				if err != nil {
					return errors.Wrapf(err, "parse %s failed", f.EnvVar)
				}
				def = b
			}
			cmd.PersistentFlags().BoolVar(v, f.Name, def, usage)
		default:
			return errors.Errorf("flag %s has unsupported type %T", f.Name, f.Value)
		}
	}
	return nil
}

// LoadDotEnv loads environment variables from the given files, or .env when
// none are given. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s failed", file)
		}
	}
	return nil
}

type settings struct {
	Env            string `validate:"oneof=development test production"`
	LogLevel       string `validate:"oneof=trace debug info warn error"`
	HealthPort     int    `validate:"gte=0,lte=65535"`
	MaxPlayers     int    `validate:"gte=1,lte=64"`
	PollTimeoutMS  int    `validate:"gt=0"`
	FrameTimeoutMS int    `validate:"gte=0"`
	TickMS         int    `validate:"gt=0"`
	Ticks          int    `validate:"gte=0"`
	DialTimeoutMS  int    `validate:"gt=0"`
	IOTimeoutMS    int    `validate:"gte=0"`
}

// ValidateEnv checks the runtime settings.
func ValidateEnv() error {
	LogLevel = strings.ToLower(LogLevel)
	s := settings{
		Env:            Env,
		LogLevel:       LogLevel,
		HealthPort:     HealthPort,
		MaxPlayers:     MaxPlayers,
		PollTimeoutMS:  PollTimeoutMS,
		FrameTimeoutMS: FrameTimeoutMS,
		TickMS:         TickMS,
		Ticks:          Ticks,
		DialTimeoutMS:  DialTimeoutMS,
		IOTimeoutMS:    IOTimeoutMS,
	}
	if err := validate.Validate().Struct(s); err != nil {
		return errors.Wrap(err, "validate settings failed")
	}
	return nil
}
