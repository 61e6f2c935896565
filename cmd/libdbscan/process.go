package main

import (
	"context"
	"os"
	"sync"

	"github.com/banshee-data/dbscan/internal/config"
	"github.com/banshee-data/dbscan/internal/job"
	"github.com/banshee-data/dbscan/internal/monitoring"
)

// ConfigEnv names the environment variable holding an optional config path.
const ConfigEnv = "DBSCAN_CONFIG"

var (
	runnerOnce sync.Once
	runner     *job.Runner
)

// defaultRunner builds the shared runner on first use. A config that fails
// to load is logged and built-in defaults are used instead.
func defaultRunner() *job.Runner {
	runnerOnce.Do(func() {
		cfg := config.EmptyConfig()
		if path := os.Getenv(ConfigEnv); path != "" {
			loaded, err := config.LoadConfig(path)
			if err != nil {
				monitoring.Logf("[libdbscan] ignoring %s=%s: %v", ConfigEnv, path, err)
			} else {
				cfg = loaded
			}
		}
		runner = job.NewRunner(cfg, nil)
	})
	return runner
}

// process runs one JSON job. It never panics on bad input; failures are
// returned as {"error": "..."}.
func process(input string) string {
	return string(defaultRunner().ProcessJSON(context.Background(), []byte(input)))
}
