// Command dbscan clusters a JSON job read from a file or stdin and prints the
// JSON result.
//
//	dbscan -in job.json -eps 0.3 -min-points 4 -html chart.html
//	cat job.json | dbscan -remote localhost:50051
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/dbscan/internal/config"
	"github.com/banshee-data/dbscan/internal/fsutil"
	"github.com/banshee-data/dbscan/internal/job"
	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/render"
	"github.com/banshee-data/dbscan/internal/rpc"
	"github.com/banshee-data/dbscan/internal/runstore"
	"github.com/banshee-data/dbscan/internal/version"
)

// Options holds the command line.
type Options struct {
	ConfigPath string
	Input      string
	OutputPath string
	HTMLPath   string
	PNGPath    string
	DBPath     string
	Remote     string
	Quiet      bool
	Version    bool

	Epsilon   float64
	MinPoints int
	Algorithm string
	Workers   int
	Shape     string
	Timeout   time.Duration

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string) (Options, error) {
	opts := Options{}
	fs := flag.NewFlagSet("dbscan", flag.ContinueOnError)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to a JSON config file")
	fs.StringVar(&opts.Input, "in", "-", "Job file to read (- for stdin)")
	fs.StringVar(&opts.OutputPath, "out", "-", "Where to write the result (- for stdout)")
	fs.StringVar(&opts.HTMLPath, "html", "", "Write an interactive HTML chart to this path")
	fs.StringVar(&opts.PNGPath, "png", "", "Write a PNG chart to this path")
	fs.StringVar(&opts.DBPath, "db", "", "Record the run in this SQLite database")
	fs.StringVar(&opts.Remote, "remote", "", "Submit the job to a dbscan-server gRPC address instead of running locally")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Suppress diagnostic logging")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit")

	fs.Float64Var(&opts.Epsilon, "eps", 0, "Neighbourhood radius (overrides job and config)")
	fs.IntVar(&opts.MinPoints, "min-points", 0, "Core point threshold (overrides job and config)")
	fs.StringVar(&opts.Algorithm, "algorithm", "", "Neighbour finder: brute or kd_tree")
	fs.IntVar(&opts.Workers, "workers", 0, "KD-tree build parallelism")
	fs.StringVar(&opts.Shape, "output", "", "Result shape: flat or partitioned")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "Abandon the job after this long (0 uses the config)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg := config.EmptyConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.set["timeout"] {
		d := opts.Timeout.String()
		cfg.RequestTimeout = &d
	}
	if opts.set["db"] {
		cfg.DBPath = &opts.DBPath
	}
	return cfg, cfg.Validate()
}

// applyOverrides copies explicitly set job flags onto req.
func applyOverrides(opts Options, req *job.Request) {
	if opts.set["eps"] {
		eps := opts.Epsilon
		req.Epsilon = &eps
	}
	if opts.set["min-points"] {
		minPts := opts.MinPoints
		req.MinPoints = &minPts
	}
	if opts.set["algorithm"] {
		req.Algorithm = opts.Algorithm
	}
	if opts.set["workers"] {
		workers := opts.Workers
		req.Workers = &workers
	}
	if opts.set["output"] {
		req.Output = opts.Shape
	}
}

func readJob(opts Options, files fsutil.FileSystem, stdin io.Reader, maxBytes int64) (*job.Request, error) {
	r := stdin
	if opts.Input != "-" {
		f, err := files.Open(opts.Input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return job.Decode(r, maxBytes)
}

func run(ctx context.Context, opts Options, files fsutil.FileSystem, stdin io.Reader, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	req, err := readJob(opts, files, stdin, cfg.GetMaxRequestBytes())
	if err != nil {
		return err
	}
	applyOverrides(opts, req)

	resp, err := execute(ctx, opts, cfg, req)
	if err != nil {
		return err
	}

	if err := writeResult(opts, files, stdout, resp); err != nil {
		return err
	}
	return writeCharts(opts, files, cfg, req, resp)
}

func execute(ctx context.Context, opts Options, cfg *config.Config, req *job.Request) (*job.Response, error) {
	if opts.Remote != "" {
		client, err := rpc.Dial(opts.Remote)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		if timeout := cfg.GetRequestTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return client.Cluster(ctx, req)
	}

	var recorder job.Recorder
	if path := cfg.GetDBPath(); path != "" {
		store, err := runstore.Open(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		recorder = store
	}
	return job.NewRunner(cfg, recorder).Run(ctx, req)
}

func writeResult(opts Options, files fsutil.FileSystem, stdout io.Writer, resp *job.Response) error {
	out, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if opts.OutputPath == "-" {
		_, err = stdout.Write(out)
		return err
	}
	return files.WriteFile(opts.OutputPath, out, 0o644)
}

func writeCharts(opts Options, files fsutil.FileSystem, cfg *config.Config, req *job.Request, resp *job.Response) error {
	if opts.HTMLPath == "" && opts.PNGPath == "" {
		return nil
	}
	labels := resp.Labels()
	if labels == nil {
		return errors.New("charts need per-point labels; use -output flat with -remote")
	}
	chart := render.Chart{
		Title:     "DBSCAN",
		MaxPoints: cfg.GetMaxPlotPoints(),
	}
	points := req.Coordinates()

	if opts.HTMLPath != "" {
		if err := writeFile(files, opts.HTMLPath, func(w io.Writer) error {
			return chart.HTML(w, points, labels)
		}); err != nil {
			return fmt.Errorf("html chart: %w", err)
		}
	}
	if opts.PNGPath != "" {
		if err := writeFile(files, opts.PNGPath, func(w io.Writer) error {
			return chart.PNG(w, points, labels, 8*vg.Inch, 8*vg.Inch)
		}); err != nil {
			return fmt.Errorf("png chart: %w", err)
		}
	}
	return nil
}

func writeFile(files fsutil.FileSystem, path string, fn func(io.Writer) error) error {
	f, err := files.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("dbscan: %v", err)
	}
	if opts.Version {
		fmt.Println("dbscan", version.String())
		return
	}
	if opts.Quiet {
		monitoring.SetLogger(nil)
	}

	if err := run(context.Background(), opts, fsutil.OSFileSystem{}, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("dbscan: %v", err)
	}
}
