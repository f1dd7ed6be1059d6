package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/headsup/games/headsup"
	"github.com/Seednode/headsup/games/motion"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	minTickRate = 30
	maxTickRate = 240
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	categories       string
	diagnostics      bool
	feedbackDuration time.Duration
	readyCooldown    time.Duration
	roundDuration    time.Duration
	sensorTimeout    time.Duration
	tickRate         int
	tiltAxis         string
	tiltCooldown     time.Duration
	tiltThreshold    float64
	totalRounds      int

	// play subcommand only
	category string
	players  []string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return c.validateGame()
}

// validateGame checks the settings shared by the server and the play command.
func (c *Config) validateGame() error {
	if c.totalRounds < 1 {
		return fmt.Errorf("invalid rounds (must be at least 1): %d", c.totalRounds)
	}
	if c.roundDuration <= 0 {
		return fmt.Errorf("invalid round duration (must be positive): %s", c.roundDuration)
	}
	if c.feedbackDuration < 0 || c.tiltCooldown < 0 || c.readyCooldown < 0 || c.sensorTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.tiltThreshold <= 0 || c.tiltThreshold >= 2 {
		return fmt.Errorf("invalid tilt threshold (must be between 0 and 2 exclusive): %v", c.tiltThreshold)
	}
	if c.tickRate < minTickRate || c.tickRate > maxTickRate {
		return fmt.Errorf("invalid tick rate (must be between %d-%d inclusive): %d", minTickRate, maxTickRate, c.tickRate)
	}
	if _, err := parseAxis(c.tiltAxis); err != nil {
		return err
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func parseAxis(s string) (motion.Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return motion.AxisX, nil
	case "y":
		return motion.AxisY, nil
	case "z":
		return motion.AxisZ, nil
	}
	return 0, fmt.Errorf("invalid tilt axis (must be x, y or z): %q", s)
}

// engine builds the game settings for a new session.
func (c *Config) engine() headsup.Config {
	axis, _ := parseAxis(c.tiltAxis)

	e := headsup.DefaultConfig()
	e.RoundDuration = c.roundDuration
	e.FeedbackDuration = c.feedbackDuration
	e.TotalRounds = c.totalRounds
	e.Diagnostics = c.diagnostics
	e.Gesture = motion.RecognizerConfig{
		Threshold: c.tiltThreshold,
		Cooldown:  c.tiltCooldown,
		Axis:      axis,
	}
	e.Ready = motion.RecognizerConfig{
		Threshold: c.tiltThreshold,
		Cooldown:  c.readyCooldown,
		Axis:      axis,
	}

	return e
}

func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("HEADSUP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "headsup",
		Short:         "A tilt-to-answer word guessing party game, served to your phone.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.StringVar(&cfg.categories, "categories", "", "directory of category .json files to use instead of the built-in set (env: HEADSUP_CATEGORIES)")
	pfs.BoolVar(&cfg.diagnostics, "diagnostics", false, "stream sensor readings to clients for the debug overlay (env: HEADSUP_DIAGNOSTICS)")
	pfs.DurationVar(&cfg.feedbackDuration, "feedback-duration", 300*time.Millisecond, "how long answer feedback stays on screen (env: HEADSUP_FEEDBACK_DURATION)")
	pfs.DurationVar(&cfg.readyCooldown, "ready-cooldown", motion.DefaultReadyCooldown, "delay before a tilt can start a round from the ready screen (env: HEADSUP_READY_COOLDOWN)")
	pfs.DurationVar(&cfg.roundDuration, "round-duration", 60*time.Second, "length of each player's turn (env: HEADSUP_ROUND_DURATION)")
	pfs.DurationVar(&cfg.sensorTimeout, "sensor-timeout", 500*time.Millisecond, "age after which a sensor sample is ignored (env: HEADSUP_SENSOR_TIMEOUT)")
	pfs.IntVar(&cfg.tickRate, "tick-rate", 40, "game updates per second (env: HEADSUP_TICK_RATE)")
	pfs.StringVar(&cfg.tiltAxis, "tilt-axis", "y", "accelerometer axis used for tilt gestures (env: HEADSUP_TILT_AXIS)")
	pfs.DurationVar(&cfg.tiltCooldown, "tilt-cooldown", motion.DefaultCooldown, "minimum time between tilt gestures (env: HEADSUP_TILT_COOLDOWN)")
	pfs.Float64Var(&cfg.tiltThreshold, "tilt-threshold", motion.DefaultThreshold, "tilt, in g, needed to confirm or skip (env: HEADSUP_TILT_THRESHOLD)")
	pfs.IntVarP(&cfg.totalRounds, "rounds", "r", 1, "default number of rounds per game (env: HEADSUP_ROUNDS)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: HEADSUP_VERBOSE)")

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: HEADSUP_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: HEADSUP_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: HEADSUP_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: HEADSUP_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: HEADSUP_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: HEADSUP_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: HEADSUP_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: HEADSUP_VERSION)")

	play := newPlayCmd(cfg, v)
	cmd.AddCommand(play)

	bindEnv(v, pfs)
	bindEnv(v, fs)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("headsup v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newPlayCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal, using the keyboard instead of tilting.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateGame(); err != nil {
				return err
			}
			return playLocal(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.category, "category", "c", "", "category to play (defaults to the first one) (env: HEADSUP_CATEGORY)")
	fs.StringSliceVarP(&cfg.players, "player", "P", nil, "player name, repeat for each player in turn order (env: HEADSUP_PLAYER)")

	bindEnv(v, fs)

	return cmd
}
