package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/config"
	"github.com/wippyai/jsbridge/errors"
	httpcall "github.com/wippyai/jsbridge/hostcall/http"
	"github.com/wippyai/jsbridge/runtime"
)

type flags struct {
	configPath  string
	logLevel    string
	output      string
	codes       []string
	bytecode    []string
	timeout     time.Duration
	http2       bool
	interactive bool
	watch       bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "jsrun [flags] [script...] [-- args...]",
		Short: "Run JavaScript with asynchronous host calls",
		Long: `Run JavaScript with asynchronous host calls.

Script files run in order, followed by -c snippets. Arguments after --
are exposed to scripts as scriptArgs. After all scripts ran and every
pending request finished, the scriptOutput global is printed, or the
value of the last expression when scriptOutput is undefined.

Examples:
  jsrun main.js
  jsrun -c 'httpRequest({url: "https://example.com"}, (ev, d) => console.log(ev))'
  jsrun fetch.js -o json -- https://example.com`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, scriptArgs := splitArgs(args, cmd.ArgsLenAtDash())
			return execute(cmd, f, files, scriptArgs)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.codes, "code", "c", nil, "execute code (repeatable)")
	fl.StringArrayVarP(&f.bytecode, "bytecode", "b", nil, "execute hex-encoded bytecode (not supported)")
	fl.StringVar(&f.configPath, "config", "", "config file (default $HOME/.jsbridge/config.yaml)")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fl.DurationVar(&f.timeout, "timeout", 0, "default request timeout")
	fl.BoolVar(&f.http2, "http2", false, "negotiate HTTP/2 for https requests")
	fl.StringVarP(&f.output, "output", "o", "text", "output format: text, json, yaml")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "show a live monitor of requests")
	fl.BoolVar(&f.watch, "watch", false, "re-run when a script file changes")

	return cmd
}

// splitArgs separates script files from the arguments after "--".
func splitArgs(args []string, dash int) (files, scriptArgs []string) {
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func execute(cmd *cobra.Command, f *flags, files, scriptArgs []string) error {
	if len(f.bytecode) > 0 {
		return errors.Unsupported(errors.PhaseScript, "bytecode execution is not supported")
	}
	if err := checkFormat(f.output); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	installLogger(log)

	if len(files) == 0 && len(f.codes) == 0 {
		return errors.InvalidInput(errors.PhaseScript, "No script file provided")
	}

	j := &job{cfg: cfg, files: files, codes: f.codes, args: scriptArgs}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case f.interactive:
		return runInteractive(ctx, j)
	case f.watch:
		return watch(ctx, j, func(out runtime.Output, err error) {
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return
			}
			_ = printOutput(cmd.OutOrStdout(), out, f.output)
		})
	}

	out, err := j.run(ctx, nil)
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), out, f.output)
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("http2") {
		cfg.HTTP2 = f.http2
	}
	if f.timeout > 0 {
		cfg.DefaultTimeoutMs = uint64(f.timeout / time.Millisecond)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func installLogger(l *zap.Logger) {
	runtime.SetLogger(l)
	httpcall.SetLogger(l)
}

// job is one configured script run. It can be repeated, each time in a
// fresh runtime.
type job struct {
	cfg   *config.Config
	files []string
	codes []string
	args  []string
}

func (j *job) scripts() ([]runtime.Script, error) {
	scripts := make([]runtime.Script, 0, len(j.files)+len(j.codes))
	for _, path := range j.files {
		s, err := runtime.LoadScript(path)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	for i, code := range j.codes {
		scripts = append(scripts, runtime.Script{Name: codeName(i), Source: code})
	}
	return scripts, nil
}

func (j *job) newRuntime(tracer runtime.Tracer) (*runtime.Runtime, error) {
	opts := []runtime.Option{
		runtime.WithArgs(j.args...),
		runtime.WithUserAgent(j.cfg.UserAgent),
		runtime.WithDefaultTimeout(j.cfg.DefaultTimeout()),
		runtime.WithTransportConfig(j.cfg.Transport()),
		runtime.WithLogger(runtime.Logger()),
	}
	if tracer != nil {
		opts = append(opts, runtime.WithTracer(tracer))
	}
	return runtime.New(opts...)
}

func (j *job) run(ctx context.Context, tracer runtime.Tracer) (runtime.Output, error) {
	scripts, err := j.scripts()
	if err != nil {
		return runtime.Output{}, err
	}
	rt, err := j.newRuntime(tracer)
	if err != nil {
		return runtime.Output{}, err
	}
	defer rt.Close()
	return rt.Run(ctx, scripts...)
}

func codeName(i int) string {
	return fmt.Sprintf("<code-%d>", i)
}
