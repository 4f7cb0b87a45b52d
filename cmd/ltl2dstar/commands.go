package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/geange/dstar"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type cliFlags struct {
	configPath  string
	logLevel    string
	logJSON     bool
	metricsFile string

	format    string
	output    string
	limit     int
	detailed  bool
	noBisim   bool
	noOptAcc  bool
	noRename  bool
	noReorder bool
	noLoop    bool
	noAccSucc bool
}

// session carries what every command needs once flags are parsed.
type session struct {
	opts     dstar.Options
	logger   *slog.Logger
	registry *prometheus.Registry
	flags    *cliFlags
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}
	root := &cobra.Command{
		Use:           "ltl2dstar",
		Short:         "Convert nondeterministic Büchi automata into deterministic Rabin automata",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML file with construction options")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.logJSON, "log-json", false, "log in JSON")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	pf.StringVarP(&flags.format, "format", "f", "v2", "output format: v2, hoa, dot")
	pf.StringVarP(&flags.output, "output", "o", "-", "output file, - for stdout")
	pf.IntVar(&flags.limit, "limit", 0, "abort when more states are needed, 0 for no limit")
	pf.BoolVar(&flags.detailed, "detailed-states", false, "describe states by their Safra trees")
	pf.BoolVar(&flags.noBisim, "no-bisim", false, "skip bisimulation quotienting")
	pf.BoolVar(&flags.noOptAcc, "no-opt-acceptance", false, "skip acceptance optimization")
	pf.BoolVar(&flags.noRename, "no-rename", false, "match Safra trees exactly")
	pf.BoolVar(&flags.noReorder, "no-reorder", false, "skip canonical sibling reordering")
	pf.BoolVar(&flags.noLoop, "no-trueloop", false, "skip the accepting true loop shortcut")
	pf.BoolVar(&flags.noAccSucc, "no-accsucc", false, "skip the accepting successors shortcut")

	root.AddCommand(
		&cobra.Command{
			Use:   "determinize <nba.yaml|->",
			Short: "Determinize an NBA given as a YAML document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, flags, func(ctx context.Context, s *session) error {
					return runDeterminize(ctx, cmd, s, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "union <a.yaml> <b.yaml>",
			Short: "Determinize two NBAs and build the automaton of their union",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, flags, func(ctx context.Context, s *session) error {
					return runUnion(ctx, cmd, s, args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "analyze <nba.yaml|->",
			Short: "Print the SCC analysis of an NBA",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, flags, func(_ context.Context, s *session) error {
					return runAnalyze(cmd, s, args[0])
				})
			},
		},
	)
	return root
}

func withSession(cmd *cobra.Command, flags *cliFlags, run func(context.Context, *session) error) error {
	logger, err := newLogger(cmd.ErrOrStderr(), flags.logLevel, flags.logJSON)
	if err != nil {
		return err
	}
	logger = logger.With("run_id", uuid.NewString())

	opts, err := loadOptions(flags)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	metrics, err := dstar.NewMetrics(registry)
	if err != nil {
		return err
	}
	opts.Logger = logger
	opts.Metrics = metrics

	s := &session{opts: opts, logger: logger, registry: registry, flags: flags}
	runErr := run(cmd.Context(), s)
	if flags.metricsFile != "" {
		if err := prometheus.WriteToTextfile(flags.metricsFile, registry); err != nil {
			logger.Error("writing metrics", "file", flags.metricsFile, "error", err)
		}
	}
	return runErr
}

func newLogger(w io.Writer, level string, json bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

var optionsValidator = validator.New()

// loadOptions starts from the defaults, applies the options file and then
// the flags.
func loadOptions(flags *cliFlags) (dstar.Options, error) {
	opts := dstar.DefaultOptions()
	if flags.configPath != "" {
		data, err := os.ReadFile(flags.configPath)
		if err != nil {
			return opts, err
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parsing %s: %w", flags.configPath, err)
		}
	}
	if flags.limit > 0 {
		opts.StateLimit = flags.limit
	}
	if flags.detailed {
		opts.DetailedStates = true
	}
	opts.Bisimulation = opts.Bisimulation && !flags.noBisim
	opts.OptimizeAcceptance = opts.OptimizeAcceptance && !flags.noOptAcc
	opts.Rename = opts.Rename && !flags.noRename
	opts.Reorder = opts.Reorder && !flags.noReorder
	opts.AcceptingTrueLoop = opts.AcceptingTrueLoop && !flags.noLoop
	opts.AcceptingSuccessors = opts.AcceptingSuccessors && !flags.noAccSucc
	if err := optionsValidator.Struct(opts); err != nil {
		return opts, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

func readNBA(cmd *cobra.Command, path string) (*dstar.NBA, error) {
	if path == "-" {
		return dstar.ReadNBAYAML(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	nba, err := dstar.ReadNBAYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nba, nil
}

func writeDA(cmd *cobra.Command, s *session, da *dstar.DA) (err error) {
	write, err := daWriter(da, s.flags.format)
	if err != nil {
		return err
	}
	if s.flags.output == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(s.flags.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func daWriter(da *dstar.DA, format string) (func(io.Writer) error, error) {
	switch strings.ToLower(format) {
	case "v2", "dstar":
		return da.WriteV2Explicit, nil
	case "hoa":
		return da.WriteHOA, nil
	case "dot":
		return da.WriteDot, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func runDeterminize(ctx context.Context, cmd *cobra.Command, s *session, path string) error {
	nba, err := readNBA(cmd, path)
	if err != nil {
		return err
	}
	s.logger.Info("determinize", "file", path, "nba_states", nba.Size())
	da, err := dstar.NBA2DRA(ctx, nba, s.opts)
	if err != nil {
		return err
	}
	da.SetComment(fmt.Sprintf("Safra[NBA=%d]", nba.Size()))
	return writeDA(cmd, s, da)
}

func runUnion(ctx context.Context, cmd *cobra.Command, s *session, left, right string) error {
	var das [2]*dstar.DA
	for i, path := range []string{left, right} {
		nba, err := readNBA(cmd, path)
		if err != nil {
			return err
		}
		if das[i], err = dstar.NBA2DRA(ctx, nba, s.opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	da, err := dstar.Union(das[0], das[1], s.opts)
	if err != nil {
		return err
	}
	if s.opts.OptimizeAcceptance {
		da.OptimizeAcceptance()
	}
	if s.opts.Bisimulation {
		if da, err = dstar.Bisimulation(da, s.opts); err != nil {
			return err
		}
	}
	da.SetComment("Union{" + left + "," + right + "}")
	return writeDA(cmd, s, da)
}

func runAnalyze(cmd *cobra.Command, _ *session, path string) error {
	nba, err := readNBA(cmd, path)
	if err != nil {
		return err
	}
	analysis := dstar.AnalyzeNBA(nba)
	sccs := analysis.SCCs()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "states: %d\n", nba.Size())
	fmt.Fprintf(out, "sccs: %d\n", sccs.Count())
	for _, c := range sccs.TopologicalOrder() {
		fmt.Fprintf(out, "scc %d: %s trivial=%t\n", c, sccs.SCC(c), sccs.IsTrivial(c))
	}
	fmt.Fprintf(out, "all successors accepting: %s\n", analysis.AllSuccessorsAccepting())
	fmt.Fprintf(out, "accepting true loops: %s\n", analysis.AcceptingTrueLoops())
	fmt.Fprintf(out, "disjoint: %t\n", analysis.Disjoint())
	return nil
}
