package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gon/config"
	"gon/worker"
)

// pathList collects a repeatable path flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var bundles, cifar pathList
	cfgPath := flag.String("config", "configs/demo.yaml", "Path to YAML config")
	flag.Var(&bundles, "bundle", "Sample bundle file (repeatable, replaces config bundles)")
	flag.Var(&cifar, "cifar", "CIFAR-10 binary batch file (repeatable, replaces config cifar)")
	epochs := flag.Int("epochs", 0, "Number of epochs")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	learningRate := flag.Float64("learning-rate", 0, "SGD learning rate")
	workers := flag.Int("workers", 0, "Goroutines per batch")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N batches")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		Bundles:      bundles,
		CIFAR:        cifar,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *learningRate,
		Workers:      *workers,
		Seed:         *seed,
		LogEvery:     *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	network, err := cfg.Network()
	if err != nil {
		log.Fatalf("build network: %v", err)
	}

	data, err := worker.ReadWorkerData(cfg.Bundles)
	if err != nil {
		log.Fatalf("load bundles: %v", err)
	}
	for _, path := range cfg.CIFAR {
		b, err := worker.ReadCIFARFile(path)
		if err != nil {
			log.Fatalf("load cifar: %v", err)
		}
		data.Add(b)
	}
	log.Printf("bundles=%d samples=%d objective=%s", data.Bundles(), data.Len(), network.Objective)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := worker.Run(ctx, network, data, worker.RunConfig{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		LogEvery:  cfg.LogEvery,
		Seed:      cfg.Seed,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	if len(stats) > 0 {
		final := stats[len(stats)-1]
		log.Printf("done epochs=%d loss=%.4f accuracy=%.3f", len(stats), final.Loss, final.Accuracy)
	}
}
