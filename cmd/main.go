package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"stepviz/internal/config"
	"stepviz/internal/logger"
	"stepviz/internal/runner"
	"stepviz/pkg/color"
	"stepviz/pkg/controller"
	"stepviz/pkg/transport"
)

// Main entry point for stepviz.
func main() {
	options := runner.Runner{}
	var (
		configFile string
		serve      bool
		listen     string
	)

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.Trace, "t", false, "Print every recorded step")
	flag.BoolVar(&options.StepMode, "s", false, "Step mode: press Enter for each step, c to continue, q to quit")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.DurationVar(&options.Delay, "d", 0, "Delay between steps (e.g. 300ms)")
	flag.IntVar(&options.MaxSteps, "m", -1, "Maximum number of steps, 0 for no limit")
	flag.StringVar(&options.InputsFile, "i", "", "File of input lines (name = value)")
	flag.StringVar(&configFile, "c", "", "YAML configuration file")
	flag.BoolVar(&serve, "serve", false, "Serve sessions over TCP")
	flag.StringVar(&listen, "l", "", "Listen address for -serve")

	flag.Parse()
	args := flag.Args()

	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			fmt.Fprintln(os.Stderr, color.Error(err.Error()))
			os.Exit(1)
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if options.Verbose {
		cfg.LogLevel = "debug"
	}
	if set["n"] {
		cfg.NoColor = options.NoColor
	}
	if set["s"] {
		cfg.StepMode = options.StepMode
	}
	if set["m"] {
		cfg.MaxSteps = options.MaxSteps
	}
	if listen != "" {
		cfg.Listen = listen
	}

	level, err := cfg.Level()
	if err != nil {
		level = log.ErrorLevel
	}
	logger.Init(level, cfg.NoColor)

	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n       %s -serve [options]\n", os.Args[0], os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if cfg.NoColor {
		color.EnableColor(false)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	if serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := transport.NewServer(log.Default(),
			controller.WithDelay(cfg.Delay),
			controller.WithMaxSteps(cfg.MaxSteps))
		if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
			log.Fatal("Server failed", "error", err)
		}
		return
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]
	options.StepMode = cfg.StepMode
	options.MaxSteps = cfg.MaxSteps
	if !set["d"] && configFile != "" {
		options.Delay = cfg.Delay
	}

	if err := options.Run(); err != nil {
		log.Fatal("Execution failed", "error", err)
	}
}
