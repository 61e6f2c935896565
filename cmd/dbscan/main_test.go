package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/banshee-data/dbscan/internal/job"
	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/rpc"
	"github.com/banshee-data/dbscan/internal/runstore"
)

const scenarioC = `{
	"points": [[0,0],[1,1],[50,50],[2,2],[30,30],[31,31],[100,100],[32,32]],
	"epsilon": 3,
	"min_points": 2
}`

func muteLogs(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCLIWith(t, fsutil.OSFileSystem{}, stdin, args...)
}

func runCLIWith(t *testing.T, files fsutil.FileSystem, stdin string, args ...string) (string, error) {
	t.Helper()
	opts, err := parseFlags(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = run(context.Background(), opts, files, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-eps", "0.25", "-algorithm", "brute", "-in", "job.json"})
	require.NoError(t, err)
	assert.Equal(t, 0.25, opts.Epsilon)
	assert.Equal(t, "brute", opts.Algorithm)
	assert.Equal(t, "job.json", opts.Input)
	assert.Equal(t, "-", opts.OutputPath)
	assert.True(t, opts.set["eps"])
	assert.False(t, opts.set["min-points"])

	_, err = parseFlags([]string{"stray"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"-eps", "wide"})
	assert.Error(t, err)
}

func TestRun_Stdin(t *testing.T) {
	muteLogs(t)
	out, err := runCLI(t, scenarioC)
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[1,1,-1,1,2,2,-1,2],"clusters":2}`, out)
}

func TestRun_FlagsOverrideJob(t *testing.T) {
	muteLogs(t)
	// eps 1 separates every point of scenario C.
	out, err := runCLI(t, scenarioC, "-eps", "1", "-output", "partitioned", "-algorithm", "brute")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Noise": [[0,0],[1,1],[50,50],[2,2],[30,30],[31,31],[100,100],[32,32]],
		"Clusters": []
	}`, out)
}

func TestRun_ConfigFile(t *testing.T) {
	muteLogs(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"epsilon": 3, "min_points": 2, "output": "partitioned"}`), 0o644))
	jobPath := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(jobPath, []byte(`{"points": [[0,0],[1,1],[9,9]]}`), 0o644))

	out, err := runCLI(t, "", "-config", cfgPath, "-in", jobPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Noise": [[9,9]], "Clusters": [[[0,0],[1,1]]]}`, out)
}

func TestRun_OutputFileAndCharts(t *testing.T) {
	muteLogs(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.json")
	htmlPath := filepath.Join(dir, "chart.html")
	pngPath := filepath.Join(dir, "chart.png")
	dbPath := filepath.Join(dir, "runs.db")

	stdout, err := runCLI(t, scenarioC, "-out", outPath, "-html", htmlPath, "-png", pngPath, "-db", dbPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[1,1,-1,1,2,2,-1,2],"clusters":2}`, string(data))

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "cluster 1")

	png, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	store, err := runstore.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 8, runs[0].NumPoints)
}

func TestRun_MemoryFiles(t *testing.T) {
	muteLogs(t)
	files := fsutil.NewMemoryFileSystem()
	require.NoError(t, files.WriteFile("job.json", []byte(scenarioC), 0o644))

	stdout, err := runCLIWith(t, files, "", "-in", "job.json", "-out", "out.json",
		"-output", "partitioned", "-eps", "1.5")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, []string{"job.json", "out.json"}, files.Names())

	data, err := files.ReadFile("out.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Noise": [[50,50],[100,100]],
		"Clusters": [[[0,0],[1,1],[2,2]], [[30,30],[31,31],[32,32]]]
	}`, string(data))

	_, err = runCLIWith(t, files, "", "-in", "other.json")
	assert.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	muteLogs(t)

	_, err := runCLI(t, `{"points": [[0]], "epsilon": -1}`)
	assert.True(t, job.IsInputError(err), "got %v", err)

	_, err = runCLI(t, `nope`)
	assert.ErrorIs(t, err, job.ErrMalformedRequest)

	_, err = runCLI(t, scenarioC, "-in", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = runCLI(t, scenarioC, "-config", "missing.yaml")
	assert.Error(t, err)
}

func TestRun_Remote(t *testing.T) {
	muteLogs(t)
	l := rpc.NewListener("127.0.0.1:0", rpc.NewServer(job.NewRunner(nil, nil)), 4<<20)
	require.NoError(t, l.Start())
	defer l.Stop()

	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "chart.html")
	out, err := runCLI(t, scenarioC, "-remote", l.Addr().String(), "-html", htmlPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[1,1,-1,1,2,2,-1,2],"clusters":2}`, out)
	assert.FileExists(t, htmlPath)

	_, err = runCLI(t, scenarioC, "-remote", l.Addr().String(), "-output", "partitioned", "-html", htmlPath)
	assert.Error(t, err, "partitioned remote results carry no labels to chart")
}
