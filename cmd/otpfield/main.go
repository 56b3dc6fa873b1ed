package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/otpfield/pkg/attempts"
	"github.com/Dicklesworthstone/otpfield/pkg/config"
	"github.com/Dicklesworthstone/otpfield/pkg/otp"
	"github.com/Dicklesworthstone/otpfield/pkg/ui"
	"github.com/Dicklesworthstone/otpfield/pkg/verify"
	"github.com/Dicklesworthstone/otpfield/pkg/version"
	"github.com/Dicklesworthstone/otpfield/pkg/watcher"
)

const usage = `# otpfield

A terminal one-time-passcode entry field.

## Usage

    otpfield [options]

Type digits into the boxes, paste a whole code with your terminal's paste or
**ctrl+v**, and use **backspace** to step back. A complete code is checked
against the configured TOTP secret.

## Non-interactive modes

- ` + "`--verify CODE`" + ` checks a code and prints JSON
- ` + "`--history`" + ` prints recent attempts as JSON
- ` + "`--init`" + ` writes a config file interactively

## Options
`

type options struct {
	configPath  string
	length      int
	value       string
	placeholder string
	separator   string
	password    bool
	secret      string
	verifyCode  string
	history     bool
	init        bool
	logPath     string
	dbPath      string
}

func main() {
	os.Exit(run())
}

func run() int {
	var o options
	help := flag.Bool("help", false, "Show help")
	showVersion := flag.Bool("version", false, "Show version")
	flag.StringVar(&o.configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	flag.IntVar(&o.length, "length", 0, "Number of slots")
	flag.StringVar(&o.value, "value", "", "Initial value")
	flag.StringVar(&o.placeholder, "placeholder", "", "Placeholder character for empty slots")
	flag.StringVar(&o.separator, "separator", "", "Text drawn between slots")
	flag.BoolVar(&o.password, "password", false, "Mask entered characters")
	flag.StringVar(&o.secret, "secret", "", "Base32 TOTP secret to check codes against (or "+config.EnvTOTPSecret+")")
	flag.StringVar(&o.verifyCode, "verify", "", "Check CODE non-interactively and print JSON")
	flag.BoolVar(&o.history, "history", false, "Print recent verification attempts as JSON")
	flag.BoolVar(&o.init, "init", false, "Create a config file interactively")
	flag.StringVar(&o.logPath, "log", "", "Write a debug log to this file")
	flag.StringVar(&o.dbPath, "db", "", "Record verification attempts in this sqlite file")
	flag.Parse()

	if *help {
		printHelp()
		return 0
	}

	if *showVersion {
		fmt.Printf("otpfield version %s\n", version.Version)
		return 0
	}

	if o.init {
		if err := runInit(o.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 2
	}

	logger, logFile, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		return 2
	}
	defer logFile.Close()

	if err := cfg.Validate(); err != nil {
		logger.Warn().Err(err).Msg("config has problems; using adjusted values")
		if errors.Is(err, config.ErrLengthDigitsMismatch) {
			fmt.Fprintf(os.Stderr, "Warning: %v; codes are checked as 6 digits\n", config.ErrLengthDigitsMismatch)
		}
	}

	var db *attempts.DB
	if cfg.History.Path != "" {
		db, err = attempts.Open(cfg.History.Path)
		if err != nil {
			// The log is optional; keep going without it.
			logger.Warn().Err(err).Msg("could not open attempt log")
			db = nil
		} else {
			defer db.Close()
		}
	}

	switch {
	case o.history:
		return runHistory(db)
	case o.verifyCode != "":
		return runVerify(cfg, db, o.verifyCode, logger)
	}
	return runInteractive(o, cfg, db, logger)
}

func printHelp() {
	style := "notty"
	if term.IsTerminal(int(os.Stdout.Fd())) {
		style = "dark"
	}
	out, err := glamour.Render(usage, style)
	if err != nil {
		out = usage
	}
	fmt.Print(out)
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(o options) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, o)
	return cfg, nil
}

func applyFlags(cfg *config.Config, o options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "length":
			cfg.Length = o.length
		case "value":
			cfg.Value = o.value
		case "placeholder":
			cfg.Placeholder = o.placeholder
		case "separator":
			cfg.Separator = o.separator
		case "password":
			if o.password {
				cfg.InputType = string(otp.InputPassword)
			} else {
				cfg.InputType = string(otp.InputText)
			}
		case "secret":
			cfg.TOTP.Secret = o.secret
		case "log":
			cfg.Log.Path = o.logPath
		case "db":
			cfg.History.Path = o.dbPath
		}
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger opens the debug log. The TUI owns stdout, so logs only ever go
// to a file; without a path everything is discarded.
func newLogger(c config.LogConfig) (zerolog.Logger, io.Closer, error) {
	if c.Path == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}
	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Str("app", "otpfield").Logger()
	return logger, f, nil
}

func newVerifier(cfg config.Config) *verify.TOTP {
	if cfg.TOTP.Secret == "" {
		return nil
	}
	return verify.NewTOTP(cfg.TOTP.Secret, cfg.TOTP.Issuer, cfg.TOTP.Period, cfg.TOTP.Skew,
		verify.DigitsForLength(cfg.Length))
}

type verifyResult struct {
	Valid    bool   `json:"valid"`
	Complete bool   `json:"complete"`
	Length   int    `json:"length"`
	Reason   string `json:"reason,omitempty"`
}

// runVerify feeds code through a field the way a paste would and checks the
// result. It prints JSON and returns the exit status.
func runVerify(cfg config.Config, db *attempts.DB, code string, logger zerolog.Logger) int {
	opts := cfg.FieldOptions()
	opts.Value = ""
	opts.Disabled, opts.ReadOnly = false, false
	opts.Logger = logger
	field := otp.New(opts)
	field.PasteFill(0, code)

	res := verifyResult{Complete: field.IsComplete(), Length: field.Len()}
	v := newVerifier(cfg)
	switch {
	case v == nil:
		res.Reason = "no TOTP secret configured"
	case !res.Complete:
		res.Reason = "code is incomplete"
	default:
		res.Valid = v.Verify(field.Value(), time.Now())
		if !res.Valid {
			res.Reason = "code does not match"
		}
	}

	if db != nil && v != nil && res.Complete {
		outcome := attempts.OutcomeRejected
		if res.Valid {
			outcome = attempts.OutcomeAccepted
		}
		if err := db.Record(&attempts.Attempt{Length: field.Len(), Outcome: outcome, Source: "cli"}); err != nil {
			logger.Warn().Err(err).Msg("could not record attempt")
		}
	}

	if err := writeJSON(res); err != nil {
		return 2
	}
	if !res.Valid {
		return 1
	}
	return 0
}

func runHistory(db *attempts.DB) int {
	if db == nil {
		fmt.Fprintln(os.Stderr, "No attempt log configured; pass --db or set history.path")
		return 2
	}
	recent, err := db.Recent(20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading attempts: %v\n", err)
		return 1
	}
	stats, err := db.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading attempts: %v\n", err)
		return 1
	}
	if recent == nil {
		recent = []attempts.Attempt{}
	}
	if err := writeJSON(struct {
		Stats  attempts.Stats     `json:"stats"`
		Recent []attempts.Attempt `json:"recent"`
	}{stats, recent}); err != nil {
		return 2
	}
	return 0
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		return err
	}
	return nil
}

func runInteractive(o options, cfg config.Config, db *attempts.DB, logger zerolog.Logger) int {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "otpfield needs a terminal; use --verify for scripted checks")
		return 2
	}

	appOpts := ui.AppOptions{Config: cfg, Logger: logger}
	if v := newVerifier(cfg); v != nil {
		appOpts.Verifier = v
	}
	if db != nil {
		appOpts.Recorder = db
	}

	p := tea.NewProgram(ui.NewAppModel(appOpts), tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := os.Stat(o.configPath); err == nil {
		w, err := watcher.New(o.configPath, func() {
			next, err := loadConfig(o)
			if err != nil {
				p.Send(ui.ConfigErrMsg{Err: err})
				return
			}
			logger.Info().Str("path", o.configPath).Msg("config reloaded")
			p.Send(ui.ConfigMsg{Config: next})
		}, watcher.WithLogger(logger))
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			logger.Warn().Err(err).Msg("config hot reload disabled")
		} else {
			defer w.Stop()
		}
	}

	final, err := p.Run()
	if err != nil {
		fmt.Printf("Error running otpfield: %v\n", err)
		return 1
	}
	if m, ok := final.(ui.AppModel); ok && m.Accepted() {
		fmt.Println("Code accepted")
		return 0
	}
	return 1
}

// runInit asks for the field settings with a form and writes the config.
func runInit(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	lengthStr := strconv.Itoa(cfg.Length)
	genSecret := cfg.TOTP.Secret == ""
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Code length").
				Value(&lengthStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return errors.New("enter a positive number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Input type").
				Options(
					huh.NewOption("Text", string(otp.InputText)),
					huh.NewOption("Password", string(otp.InputPassword)),
				).
				Value(&cfg.InputType),
			huh.NewInput().
				Title("Separator").
				Description("Drawn between slots; leave empty for none").
				Value(&cfg.Separator),
			huh.NewInput().
				Title("Placeholder").
				Description("One character shown in empty slots").
				CharLimit(1).
				Value(&cfg.Placeholder),
			huh.NewConfirm().
				Title("Generate a new TOTP secret?").
				Value(&genSecret),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("init form: %w", err)
	}

	cfg.Length, _ = strconv.Atoi(lengthStr)
	if genSecret {
		secret, uri, err := verify.GenerateSecret(cfg.TOTP.Issuer, "otpfield", verify.DigitsForLength(cfg.Length))
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		cfg.TOTP.Secret = secret
		fmt.Printf("Add this to your authenticator app:\n%s\n", uri)
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
