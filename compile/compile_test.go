package compile_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/susji/sol0/compile"
	"github.com/susji/sol0/config"
	"github.com/susji/sol0/internal/log"
	"github.com/susji/sol0/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const trailer = "// ----\n"

// expectations returns the lines following the trailer with the comment
// markers removed.
func expectations(t *testing.T, src []byte) []string {
	t.Helper()
	i := bytes.Index(src, []byte(trailer))
	require.GreaterOrEqual(t, i, 0, "missing expectation trailer")
	ret := []string{}
	for _, line := range strings.Split(string(src[i+len(trailer):]), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ret = append(ret, strings.TrimPrefix(line, "// "))
	}
	return ret
}

func render(diags []*report.Diagnostic) []string {
	ret := []string{}
	for _, d := range diags {
		ret = append(ret, fmt.Sprintf("%s %d:%d: %s",
			d.Severity, d.Location.Span.Lineno0, d.Location.Span.Col0, d.Message()))
	}
	return ret
}

func TestFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.sol"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, fn := range files {
		fn := fn
		t.Run(filepath.Base(fn), func(t *testing.T) {
			src, err := os.ReadFile(fn)
			require.NoError(t, err)
			want := expectations(t, src)
			for _, workers := range []int{1, 4} {
				conf := config.Default()
				conf.Analysis.Workers = workers
				res := compile.Source(fn, src, conf, log.Discard())
				if diff := cmp.Diff(want, render(res.Diagnostics)); diff != "" {
					t.Errorf("workers=%d: diagnostics mismatch (-want +got):\n%s", workers, diff)
				}
				assert.Equal(t, report.ContainsOnlyWarnings(res.Diagnostics), res.OK)
				for _, d := range res.Diagnostics {
					assert.Equal(t, fn, d.Location.File)
				}
			}
		})
	}
}

func TestStopsOnParseErrors(t *testing.T) {
	res := compile.Source("bad.sol", []byte("contract C { function f( }"), config.Default(), log.Discard())
	assert.False(t, res.OK)
	require.NotEmpty(t, res.Diagnostics)
	for _, d := range res.Diagnostics {
		assert.Equal(t, report.ParserError, d.Severity)
	}
	assert.Nil(t, res.Unit)
	assert.Nil(t, res.CFG)
}

func TestStopsOnLexErrors(t *testing.T) {
	res := compile.Source("bad.sol", []byte("contract C { uint x = 1 @ 2; }"), config.Default(), log.Discard())
	assert.False(t, res.OK)
	assert.Nil(t, res.Unit)
}

func TestCFGAvailable(t *testing.T) {
	src := []byte(`contract C { function f() internal { uint x = 1; } function g() internal; }`)
	res := compile.Source("ok.sol", src, config.Default(), log.Discard())
	require.True(t, res.OK)
	require.NotNil(t, res.CFG)
	require.Len(t, res.CFG.Functions(), 1)
	assert.Equal(t, "f", res.CFG.Functions()[0].Name)
	assert.NotNil(t, res.Types)
}

func TestDisabledChecks(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "merge_read.sol"))
	require.NoError(t, err)
	conf := config.Default()
	conf.Analysis.UnassignedStorage = false
	res := compile.Source("merge_read.sol", src, conf, log.Discard())
	assert.True(t, res.OK)
	assert.Empty(t, res.Diagnostics)
}

func TestLogsStages(t *testing.T) {
	b := &bytes.Buffer{}
	src := []byte(`contract C { function f() internal { } }`)
	compile.Source("ok.sol", src, config.Default(), log.New("debug", false, b))
	assert.Contains(t, b.String(), "stage=cfg")
	assert.Contains(t, b.String(), "functions=1")
	assert.Contains(t, b.String(), "file=ok.sol")
}
