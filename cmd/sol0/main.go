// sol0 checks contracts for storage pointers which may be read before they
// are assigned. It can also dump the intermediate stages for debugging.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/susji/sol0/compile"
	"github.com/susji/sol0/config"
	"github.com/susji/sol0/internal/log"
	"github.com/susji/sol0/lex"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/parse"
	"github.com/susji/sol0/report"
)

var (
	// ErrFailed means the diagnostics explaining the failure were already
	// written.
	ErrFailed     = errors.New("compilation failed")
	ErrNoSuchFlow = errors.New("no flow for function")
)

// settings are resolved from the config file, the environment and the
// global flags, in increasing priority.
func settings(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		}
	}
	conf, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		conf.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("format") {
		conf.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("workers") {
		conf.Analysis.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}
	return conf, log.New(conf.Log.Level, conf.Log.JSON, cmd.ErrOrStderr()), nil
}

// runCheck compiles every file and writes their diagnostics to w. It returns
// whether every file compiled without errors.
func runCheck(w io.Writer, conf *config.Config, logger *slog.Logger, files []string) (bool, error) {
	ok := true
	diags := []*report.Diagnostic{}
	for _, fn := range files {
		src, err := os.ReadFile(fn)
		if err != nil {
			return false, err
		}
		res := compile.Source(fn, src, conf, logger)
		logger.Info("checked", "file", fn, "ok", res.OK, "diagnostics", len(res.Diagnostics))
		ok = ok && res.OK
		diags = append(diags, res.Diagnostics...)
	}
	return ok, report.Encode(w, conf.Output.Format, diags)
}

// runCFG writes the flows of file in Graphviz format. An empty function
// name means every function.
func runCFG(w io.Writer, conf *config.Config, logger *slog.Logger, file, function string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	res := compile.Source(file, src, conf, logger)
	if res.CFG == nil {
		if err := report.Encode(w, report.FormatText, res.Diagnostics); err != nil {
			return err
		}
		return ErrFailed
	}
	found := false
	for _, fd := range res.CFG.Functions() {
		if function != "" && fd.Name != function {
			continue
		}
		found = true
		if err := res.CFG.FunctionFlow(fd).Dot(w); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrNoSuchFlow, function)
	}
	return nil
}

func dumper(w io.Writer) node.NodeCallback {
	return func(n node.Node, depth int) bool {
		i := ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
		ie := 4 * depth
		if ie > len(i)-1 {
			ie = len(i) - 1
		}
		fmt.Fprintf(w, "%s %s\n", i[0:ie], n)
		return true
	}
}

func runAST(w io.Writer, file string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	toks, errs := lex.Lex(src, file)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	p := parse.NewFile(file)
	if err := p.Parse(toks); err != nil {
		return errors.Join(p.Errors()...)
	}
	node.Walk(p.Unit(), dumper(w))
	return nil
}

func runTokens(w io.Writer, file string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	toks, errs := lex.Lex(src, file)
	for toks.Len() > 0 {
		fmt.Fprintln(w, toks.Pop())
	}
	return errors.Join(errs...)
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "sol0",
		Short:         "Control flow checks for sol0 contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file path (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("format", report.FormatText, "Diagnostic format (text, json, msgpack)")
	root.PersistentFlags().Int("workers", 1, "Functions analyzed concurrently")

	checkCmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Compile files and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := settings(cmd)
			if err != nil {
				return err
			}
			ok, err := runCheck(cmd.OutOrStdout(), conf, logger, args)
			if err != nil {
				return err
			}
			if !ok {
				return ErrFailed
			}
			return nil
		},
	}

	cfgCmd := &cobra.Command{
		Use:   "cfg FILE",
		Short: "Write control flow graphs in Graphviz format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := settings(cmd)
			if err != nil {
				return err
			}
			function, _ := cmd.Flags().GetString("function")
			return runCFG(cmd.OutOrStdout(), conf, logger, args[0], function)
		},
	}
	cfgCmd.Flags().String("function", "", "Only this function")

	astCmd := &cobra.Command{
		Use:   "ast FILE",
		Short: "Dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAST(cmd.OutOrStdout(), args[0])
		},
	}

	tokensCmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "Dump the lexed tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd.OutOrStdout(), args[0])
		},
	}

	root.AddCommand(checkCmd, cfgCmd, astCmd, tokensCmd)
	return root
}

func main() {
	if err := newRoot().Execute(); err != nil {
		if !errors.Is(err, ErrFailed) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}
