package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-minivm/crosscheck"
	"github.com/wippyai/wasm-minivm/engine"
	"github.com/wippyai/wasm-minivm/errors"
	"github.com/wippyai/wasm-minivm/runtime"
	"github.com/wippyai/wasm-minivm/wasm"
)

// Exit codes.
const (
	exitOK          = 0
	exitUsage       = 1
	exitDecode      = 2
	exitInstantiate = 3
	exitTrap        = 4
	exitMismatch    = 5
)

const usage = `Usage: run [flags] <file.wasm|file.wat>
       run -wasm <file.wasm> [-trace] [-verify] [-max-stack N] [-v]
       run -wasm <file.wasm> -i  (interactive stepper)

Files ending in .wat are assembled from WebAssembly text first.

Flags:
`

func main() {
	a := &app{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
		runStepper: runInteractive,
	}
	os.Exit(a.run(context.Background(), os.Args[1:]))
}

type app struct {
	fs         afero.Fs
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool
	runStepper func(*stepperModel) error
}

type options struct {
	path        string
	maxStack    int
	trace       bool
	verbose     bool
	interactive bool
	verify      bool
}

func (a *app) parseFlags(args []string) (*options, error) {
	opts := &options{}
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	flags.Usage = func() {
		fmt.Fprint(a.stderr, usage)
		flags.PrintDefaults()
	}
	flags.StringVar(&opts.path, "wasm", "", "Path to module .wasm or .wat file")
	flags.BoolVar(&opts.trace, "trace", false, "Print every executed instruction")
	flags.BoolVar(&opts.verbose, "v", false, "Enable debug logging")
	flags.BoolVar(&opts.interactive, "i", false, "Interactive stepper with TUI")
	flags.BoolVar(&opts.verify, "verify", false, "Cross-check the result against wazero")
	flags.IntVar(&opts.maxStack, "max-stack", engine.DefaultMaxStackDepth, "Operand stack capacity")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if opts.path == "" && flags.NArg() > 0 {
		opts.path = flags.Arg(0)
	}
	if opts.path == "" {
		flags.Usage()
		return nil, stderrors.New("no module given")
	}
	if opts.maxStack <= 0 {
		return nil, fmt.Errorf("-max-stack must be positive, got %d", opts.maxStack)
	}
	return opts, nil
}

func (a *app) run(ctx context.Context, args []string) int {
	opts, err := a.parseFlags(args)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitUsage
	}

	log := zap.NewNop()
	if opts.verbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			log = dev
		}
	}
	defer log.Sync()
	engine.SetLogger(log.Named("engine"))
	runtime.SetLogger(log.Named("runtime"))

	data, err := afero.ReadFile(a.fs, opts.path)
	if err != nil {
		return a.fail(errors.Load("read "+opts.path, err))
	}

	cfg := runtime.DefaultConfig()
	cfg.Engine.MaxStackDepth = opts.maxStack
	if opts.trace {
		cfg.Engine.Tracer = traceTo(a.stdout)
	}
	rt := runtime.New(cfg)

	var mod *wasm.Module
	if strings.EqualFold(filepath.Ext(opts.path), ".wat") {
		mod, err = rt.LoadWAT(string(data))
	} else {
		mod, err = rt.Load(data)
	}
	if err != nil {
		return a.fail(err)
	}
	summary := runtime.Summarize(mod)
	fmt.Fprint(a.stdout, renderSummary(opts.path, summary))

	inst, err := rt.Instantiate(mod)
	if err != nil {
		return a.fail(err)
	}

	fn, ok := inst.StartFunction()
	if !ok {
		fmt.Fprintln(a.stdout, mutedStyle.Render("no start function"))
		return exitOK
	}

	if opts.interactive {
		if !a.isTerminal() {
			return a.fail(errors.InvalidInput(errors.PhaseLoad, "interactive mode requires a terminal"))
		}
		if err := a.runStepper(newStepperModel(opts.path, fn.Body(), cfg.Engine)); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return exitUsage
		}
		return exitOK
	}

	res, runErr := rt.Invoke(ctx, fn)
	if runErr != nil {
		fmt.Fprintln(a.stderr, errorStyle.Render("trap: "+runErr.Error()))
	} else {
		fmt.Fprintln(a.stdout, "stack: "+resultStyle.Render(formatStack(res.Stack)))
	}

	var report *crosscheck.Report
	if opts.verify {
		report, err = crosscheck.Verify(ctx, fn.Code, res, runErr)
		if err != nil {
			return a.fail(err)
		}
		fmt.Fprintln(a.stdout, renderReport(report))
		log.Debug("crosscheck", zap.Stringer("verdict", report.Verdict), zap.String("reason", report.Reason))
	}

	return exitCode(runErr, report)
}

func (a *app) fail(err error) int {
	fmt.Fprintln(a.stderr, errorStyle.Render("Error: "+err.Error()))
	return exitCodeFor(err)
}

// exitCodeFor maps an error to its exit code by phase.
func exitCodeFor(err error) int {
	phase, _ := errors.PhaseOf(err)
	switch phase {
	case errors.PhaseDecode:
		return exitDecode
	case errors.PhaseInstantiate:
		return exitInstantiate
	case errors.PhaseRuntime:
		return exitTrap
	default:
		return exitUsage
	}
}

func exitCode(runErr error, report *crosscheck.Report) int {
	if report != nil && report.Verdict == crosscheck.Mismatch {
		return exitMismatch
	}
	if runErr != nil {
		return exitCodeFor(runErr)
	}
	return exitOK
}

func traceTo(w io.Writer) engine.Tracer {
	return func(s engine.Step) {
		fmt.Fprintf(w, "%s %-28s level=%d stack=%s\n",
			mutedStyle.Render(fmt.Sprintf("[%4d]", s.Index)),
			s.Instr.String(),
			s.BlockLevel,
			formatStack(s.Stack))
	}
}

func formatStack(stack []engine.Value) string {
	parts := make([]string, len(stack))
	for i, v := range stack {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func renderSummary(path string, s runtime.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Module"))
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString("\n")

	fmt.Fprintf(&b, "types: %d\n", s.TypeCount)
	for i, t := range s.Types {
		fmt.Fprintf(&b, "  type[%d] %s params=%d results=%d\n", i, typeStyle.Render(t.Signature), t.Params, t.Results)
	}
	fmt.Fprintf(&b, "functions: %d\n", s.FuncCount)
	if s.Start != nil {
		fmt.Fprintf(&b, "start: %d\n", *s.Start)
	} else {
		b.WriteString("start: none\n")
	}
	return b.String()
}

func renderReport(r *crosscheck.Report) string {
	line := "crosscheck: " + r.Verdict.String()
	switch r.Verdict {
	case crosscheck.Agree:
		return resultStyle.Render(line)
	case crosscheck.Mismatch:
		return errorStyle.Render(line + " (" + r.Reason + ")")
	default:
		return mutedStyle.Render(line + " (" + r.Reason + ")")
	}
}
