// Command freyja runs the vehicle-edge data pipeline: a Cartographer
// reconciling a mapping into a Signal Store, and an Emitter delivering
// due signal values to a cloud connector.
//
// Concrete adapters, twin/mapping/cloud service discovery, and
// configuration loading are out of this module's scope; this binary
// wires together whatever implementations of the adapter contracts the
// embedding deployment provides.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/freyja-edge/freyja/go/cartographer"
	"github.com/freyja-edge/freyja/go/contracts"
	"github.com/freyja-edge/freyja/go/emitter"
	"github.com/freyja-edge/freyja/go/ops"
	"github.com/freyja-edge/freyja/go/selector"
	"github.com/freyja-edge/freyja/go/store"
)

// Config is the top-level CLI configuration for the freyja binary.
var Config = new(struct {
	LogLevel            string        `long:"log-level" env:"FREYJA_LOG_LEVEL" default:"info" description:"off, error, warn, info, debug, or trace"`
	MappingPollInterval time.Duration `long:"mapping-poll-interval" env:"FREYJA_MAPPING_POLL_INTERVAL" default:"5s" description:"how often the cartographer polls for mapping work"`
})

type cmdServe struct{}

// Collaborators is the set of adapter-contract implementations a
// deployment must provide to run the pipeline. This binary has no way
// to construct these itself -- they arrive from an embedding package
// that wires concrete gRPC/MQTT/HTTP/in-memory adapters, which is
// explicitly out of this module's scope.
type Collaborators struct {
	Mapping          contracts.MappingSource
	Twin             contracts.DigitalTwinAdapter
	Cloud            contracts.CloudSink
	AdapterFactories []contracts.DataAdapterFactory
	DiscoveryChain   []contracts.ServiceDiscoveryAdapter
}

// Run wires Collaborators into a Signal Store, Adapter Selector,
// Cartographer, and Emitter, and runs them cooperatively until ctx is
// canceled or one of them fails. It is exported so an embedding binary
// that has concrete adapters can drive the pipeline directly.
func Run(ctx context.Context, c Collaborators, pollInterval time.Duration) error {
	signals := store.New()

	adapterSelector := selector.NewAdapterSelector(signals)
	for _, factory := range c.AdapterFactories {
		adapterSelector.RegisterFactory(factory)
	}

	discovery := selector.NewDiscoverySelector()
	for _, adapter := range c.DiscoveryChain {
		discovery.Register(adapter)
	}
	log := ops.ForComponent("main")
	log.WithField("chain", discovery.Names()).Info("service discovery chain registered")

	carto := cartographer.New(c.Mapping, c.Twin, adapterSelector, signals, cartographer.Config{
		PollInterval: pollInterval,
	})
	emit := emitter.New(signals, adapterSelector, c.Cloud)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error { return carto.Run(grpCtx) })
	grp.Go(func() error { return emit.Run(grpCtx) })

	if err := grp.Wait(); err != nil && grpCtx.Err() == nil {
		return err
	}
	return nil
}

func (cmdServe) Execute(_ []string) error {
	if err := ops.Configure(ops.Level(Config.LogLevel)); err != nil {
		return err
	}
	log := ops.ForComponent("main")

	color.New(color.FgCyan, color.Bold).Fprintln(os.Stderr, "freyja starting")
	log.WithField("mappingPollInterval", Config.MappingPollInterval).Info("configuration loaded")

	// A deployment without concrete adapters has nothing useful to run.
	// An embedding package is expected to replace cmdServe.Execute (or
	// call Run directly) once it has wired concrete adapters; this
	// binary's own entrypoint stops here rather than fabricate them.
	//
	// A real Execute would derive its context like so, then call Run:
	//   ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	//   defer stop()
	//   return Run(ctx, collaborators, Config.MappingPollInterval)
	return fmt.Errorf("no adapter collaborators configured: this binary must be extended with concrete adapters")
}

func main() {
	parser := flags.NewParser(Config, flags.Default)
	if _, err := parser.AddCommand("serve", "Run the freyja pipeline", "Runs the Cartographer and Emitter. This build wires no concrete adapters, so the command exits with a fatal initialization error.", &cmdServe{}); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
