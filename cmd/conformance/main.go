package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/example/jsexpr/config"
	"github.com/example/jsexpr/engine"
	"github.com/example/jsexpr/testrunner"
)

func main() {
	args := struct {
		Dir     string        `arg:"positional" help:"directory of .js fixtures"`
		Filter  string        `help:"run only fixtures whose path contains this"`
		Limit   int           `help:"maximum number of fixtures to run (0 = all)"`
		Timeout time.Duration `help:"per-fixture time limit"`
		Config  string        `help:"path to a YAML config file"`
		Verbose bool          `arg:"-v" help:"log each fixture as it finishes"`
	}{
		Dir:     "testrunner/testdata",
		Timeout: 5 * time.Second,
	}
	arg.MustParse(&args)

	if _, err := os.Stat(args.Dir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "error: fixture directory not found at %s\n", args.Dir)
		os.Exit(1)
	}

	cfg := config.Default()
	if args.Config != "" {
		var err error
		if cfg, err = config.Load(args.Config); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	e, err := engine.New(cfg, engine.WithLogger(logger.Named("engine").WithOptions(zap.IncreaseLevel(zap.InfoLevel))))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	results, summary, err := testrunner.Run(testrunner.Config{
		Dir:     args.Dir,
		Filter:  args.Filter,
		Limit:   args.Limit,
		Timeout: args.Timeout,
		Engine:  e,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if !args.Verbose {
		for _, r := range results {
			msg := ""
			if r.Message != "" {
				msg = " " + r.Message
			}
			fmt.Printf("%s %s%s\n", r.Result, r.Path, msg)
		}
	}

	fmt.Println()
	fmt.Println("=== Conformance Summary ===")
	fmt.Printf("Total:   %d\n", summary.Total)
	fmt.Printf("Passed:  %d\n", summary.Passed)
	fmt.Printf("Failed:  %d\n", summary.Failed)
	fmt.Printf("Skipped: %d\n", summary.Skipped)
	fmt.Printf("Errors:  %d\n", summary.Errors)
	if summary.Total > summary.Skipped {
		fmt.Printf("Pass rate: %.1f%% (%d/%d excluding skipped)\n",
			summary.PassRate(), summary.Passed, summary.Total-summary.Skipped)
	}
	fmt.Printf("Elapsed: %s\n", summary.Elapsed)

	if summary.Failed > 0 || summary.Errors > 0 {
		os.Exit(1)
	}
}
