// Package compile drives the sol0 pipeline from source text to diagnostics.
package compile

import (
	"log/slog"
	"time"

	"github.com/susji/sol0/analyze"
	"github.com/susji/sol0/cfa"
	"github.com/susji/sol0/cfg"
	"github.com/susji/sol0/config"
	"github.com/susji/sol0/lex"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/parse"
	"github.com/susji/sol0/report"
)

// Result is everything a compilation produced. Unit, Types and CFG are nil if
// the pipeline stopped before the respective stage.
type Result struct {
	File        string
	Unit        *node.SourceUnit
	Types       *analyze.Results
	CFG         *cfg.CFG
	Diagnostics []*report.Diagnostic
	// OK tells whether only warnings were reported.
	OK bool
}

func (r *Result) finish(reporter *report.Reporter) *Result {
	r.Diagnostics = reporter.Diagnostics()
	r.OK = report.ContainsOnlyWarnings(r.Diagnostics)
	return r
}

func Options(conf *config.Config) cfa.Options {
	return cfa.Options{
		UnassignedStorage: conf.Analysis.UnassignedStorage,
		UnreachableCode:   conf.Analysis.UnreachableCode,
		Workers:           conf.Analysis.Workers,
	}
}

// Source compiles src. Control flow is only analyzed if the earlier stages
// reported no errors.
func Source(file string, src []byte, conf *config.Config, logger *slog.Logger) *Result {
	ret := &Result{File: file}
	reporter := report.New()
	logger = logger.With("file", file)

	start := time.Now()
	toks, lexerrs := lex.Lex(src, file)
	reporter.Add(lexerrs...)
	logger.Debug("lexed", "tokens", toks.Len(), "errors", len(lexerrs))
	if !reporter.ContainsOnlyWarnings() {
		return ret.finish(reporter)
	}

	p := parse.NewFile(file)
	if err := p.Parse(toks); err != nil {
		reporter.Add(p.Errors()...)
		logger.Debug("parse failed", "errors", len(p.Errors()))
		return ret.finish(reporter)
	}
	ret.Unit = p.Unit()
	logger.Debug("parsed", "contracts", len(ret.Unit.Contracts))

	a := analyze.New(file)
	reporter.Add(a.Analyze(ret.Unit)...)
	ret.Types = a.Results()
	if !reporter.ContainsOnlyWarnings() {
		logger.Debug("analysis failed", "diagnostics", len(reporter.Diagnostics()))
		return ret.finish(reporter)
	}

	ret.CFG = cfg.New(ret.Types, reporter)
	if !ret.CFG.ConstructFlow(ret.Unit) {
		return ret.finish(reporter)
	}
	logger.Debug("stage done", "stage", "cfg",
		"functions", len(ret.CFG.Functions()),
		"nodes", ret.CFG.Container().Len())

	ok := cfa.New(file, ret.CFG, ret.Types, reporter, Options(conf)).Analyze(ret.Unit)
	logger.Debug("stage done", "stage", "cfa", "ok", ok, "elapsed", time.Since(start))
	return ret.finish(reporter)
}
