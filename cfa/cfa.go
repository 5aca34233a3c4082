// Package cfa runs the control flow analyses of a sol0 source unit over its
// CFG. The central check finds storage pointers which may be read before
// they are bound to anything.
package cfa

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/susji/sol0/cfg"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/report"
)

var (
	ErrUnassignedStorage = errors.New("this variable is of storage pointer type and is accessed without prior assignment")
	ErrUnreachable       = errors.New("unreachable code")
)

type Options struct {
	UnassignedStorage bool
	UnreachableCode   bool
	// Workers bounds how many functions are analyzed concurrently. Values
	// below two mean sequential analysis.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		UnassignedStorage: true,
		UnreachableCode:   true,
		Workers:           1,
	}
}

type Analyzer struct {
	fn       string
	cfg      *cfg.CFG
	types    TypeInfo
	reporter *report.Reporter
	opts     Options
}

func New(fn string, c *cfg.CFG, ti TypeInfo, reporter *report.Reporter, opts Options) *Analyzer {
	return &Analyzer{
		fn:       fn,
		cfg:      c,
		types:    ti,
		reporter: reporter,
		opts:     opts,
	}
}

func (a *Analyzer) loc(n node.Node) report.Location {
	return report.Location{File: a.fn, Span: n.Span()}
}

func implemented(unit *node.SourceUnit) []*node.FunDef {
	ret := []*node.FunDef{}
	for _, con := range unit.Contracts {
		for _, fd := range con.Functions {
			if fd.Implemented() {
				ret = append(ret, fd)
			}
		}
	}
	return ret
}

// Analyze checks every implemented function of unit. It returns whether the
// diagnostics reported so far contain only warnings. Diagnostics are reported
// function by function in source order regardless of Workers.
func (a *Analyzer) Analyze(unit *node.SourceUnit) bool {
	fds := implemented(unit)
	found := make([][]error, len(fds))
	if a.opts.Workers > 1 {
		g := &errgroup.Group{}
		g.SetLimit(a.opts.Workers)
		for i, fd := range fds {
			i, fd := i, fd
			g.Go(func() error {
				found[i] = a.function(fd)
				return nil
			})
		}
		// Nothing returns an error.
		_ = g.Wait()
	} else {
		for i, fd := range fds {
			found[i] = a.function(fd)
		}
	}
	for _, errs := range found {
		a.reporter.Add(errs...)
	}
	return a.reporter.ContainsOnlyWarnings()
}

func (a *Analyzer) function(fd *node.FunDef) []error {
	ff := a.cfg.FunctionFlow(fd)
	errs := []error{}
	if a.opts.UnassignedStorage {
		errs = append(errs, a.checkUnassignedStorageReturnValues(ff)...)
	}
	if a.opts.UnreachableCode {
		errs = append(errs, a.checkUnreachable(ff)...)
	}
	return errs
}

// checkUnassignedStorageReturnValues reports every storage pointer read which
// may happen before assignment on a path ending in the normal exit of the
// function. Paths ending in revert discard their effects and are ignored.
func (a *Analyzer) checkUnassignedStorageReturnValues(ff *cfg.FunctionFlow) []error {
	errs := []error{}
	for _, occ := range Solve(ff, a.types).Unsafe {
		errs = append(errs, report.Errorf(report.TypeError, a.loc(occ.Node), "%w", ErrUnassignedStorage))
	}
	return errs
}
