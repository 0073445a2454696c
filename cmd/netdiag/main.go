package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/netdiag/internal/analyze"
	"github.com/jaxxstorm/netdiag/internal/dnsclient"
	"github.com/jaxxstorm/netdiag/internal/logging"
	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/output"
	"github.com/jaxxstorm/netdiag/internal/probe"
	"github.com/jaxxstorm/netdiag/internal/report"
	"github.com/jaxxstorm/netdiag/internal/scheduler"
	"github.com/jaxxstorm/netdiag/internal/sysexec"
	"github.com/jaxxstorm/netdiag/internal/sysinfo"
	"github.com/jaxxstorm/netdiag/internal/targets"
	"go.uber.org/zap"
)

var Version = "dev"

type CLI struct {
	Run     RunCmd     `cmd:"" default:"1" help:"Probe the configured targets and print a report (default)."`
	Targets TargetsCmd `cmd:"targets" help:"Print the resolved target set as YAML."`
	Version VersionCmd `cmd:"version" help:"Print version."`
}

type TargetFlags struct {
	Config    string        `type:"existingfile" help:"YAML target file layered over the built-in targets."`
	Resolver  string        `help:"DNS resolver for lookups, or 'system' to use the first nameserver in resolv.conf."`
	PingCount int           `help:"Echo requests per ping probe."`
	Ping      []string      `help:"Host to ping (repeatable, replaces configured ping targets)."`
	DNS       []string      `name:"dns" help:"Domain to resolve (repeatable, replaces configured DNS targets)."`
	TCP       []string      `name:"tcp" help:"host:port to connect to (repeatable, replaces configured TCP targets)."`
	URL       []string      `name:"url" help:"URL to fetch (repeatable, replaces configured HTTP targets)."`
	UserAgent string        `help:"User-Agent for HTTP probes."`
	Timeout   time.Duration `help:"Override the timeout of every probe."`
}

type RunCmd struct {
	TargetFlags `embed:""`

	Workers    int    `default:"5" help:"Maximum probes in flight."`
	Output     string `enum:"pretty,json" default:"pretty" help:"Output format."`
	SkipSystem bool   `help:"Skip interface, route and netstat capture."`
	Verbose    bool   `help:"Enable verbose logging."`
	Debug      bool   `help:"Enable debug logging (includes raw DNS messages)."`
	LogFile    string `help:"Also write JSON logs to this file, rotated."`
}

type TargetsCmd struct {
	TargetFlags `embed:""`
}

type VersionCmd struct{}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("netdiag"),
		kong.Description("Probe network reachability and explain what is broken."),
	)

	switch ctx.Selected().Name {
	case "version":
		fmt.Println(Version)
	case "targets":
		set, err := cli.Targets.resolve()
		if err != nil {
			fail(err)
		}
		data, err := set.Marshal()
		if err != nil {
			fail(err)
		}
		fmt.Print(string(data))
	default:
		logger, err := logging.New(logging.Options{
			Verbose: cli.Run.Verbose,
			Debug:   cli.Run.Debug,
			File:    cli.Run.LogFile,
		})
		if err != nil {
			fail(err)
		}
		defer func() { _ = logger.Sync() }()
		if err := runDiagnostics(cli.Run, logger); err != nil {
			_ = logger.Sync()
			fail(err)
		}
	}
}

func (f TargetFlags) resolve() (targets.Set, error) {
	set := targets.Default()
	if f.Config != "" {
		loaded, err := targets.Load(f.Config)
		if err != nil {
			return targets.Set{}, err
		}
		set = loaded
	}
	return set.Apply(targets.Overrides{
		PingHosts:  f.Ping,
		PingCount:  f.PingCount,
		DNSDomains: f.DNS,
		Resolver:   f.Resolver,
		TCPPorts:   f.TCP,
		URLs:       f.URL,
		UserAgent:  f.UserAgent,
		Timeout:    f.Timeout,
	})
}

func runDiagnostics(cmd RunCmd, logger *zap.Logger) error {
	set, err := cmd.resolve()
	if err != nil {
		return err
	}
	specs := set.Specs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := sysexec.New(sysexec.Options{Logger: logger})
	runner := probe.NewRunner(probe.Options{
		Executor: executor,
		DNS: dnsclient.New(dnsclient.Options{
			Mode:    dnsclient.ModeAuto,
			Timeout: set.DNS.Timeout,
			Retries: 1,
			Logger:  logger,
		}),
		Logger: logger,
	})
	sched := scheduler.New(runner, scheduler.Config{Workers: cmd.Workers, Logger: logger})

	started := time.Now()
	logger.Info("run_start", zap.Int("probes", len(specs)), zap.Int("workers", cmd.Workers))

	var system model.SystemInfo
	systemDone := make(chan struct{})
	go func() {
		defer close(systemDone)
		if cmd.SkipSystem {
			return
		}
		collector := &sysinfo.Collector{Executor: executor, Logger: logger}
		system = collector.Collect(ctx)
	}()

	result := report.Build(specs, sched.Stream(ctx, specs), func(err error) {
		logger.Warn("completion_rejected", zap.Error(err))
	})
	<-systemDone

	result.StartedAt = started
	result.FinishedAt = time.Now()
	result.System = system
	result.Diagnosis = analyze.Diagnose(result)
	logger.Info("run_complete",
		zap.Duration("elapsed", result.FinishedAt.Sub(started)),
		zap.String("classification", result.Diagnosis.Classification),
	)

	var rendered string
	if cmd.Output == "json" {
		rendered, err = output.RenderJSON(result)
		if err != nil {
			return fmt.Errorf("render json: %w", err)
		}
	} else {
		rendered = output.RenderPretty(result)
	}
	fmt.Println(rendered)
	return nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
