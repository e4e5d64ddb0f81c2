package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"gon/neuralnet"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Epochs    int
	BatchSize int
	LogEvery  int
	Seed      int64
}

// EpochStats summarises one pass over the data.
type EpochStats struct {
	Epoch    int
	Loss     float64
	Accuracy float64
	Duration time.Duration
}

// Run trains network on data for cfg.Epochs, reshuffling the batch index at
// the start of every epoch. It returns the stats of each completed epoch.
func Run(ctx context.Context, network *neuralnet.NeuralNetwork, data *WorkerData, cfg RunConfig) ([]EpochStats, error) {
	if cfg.Epochs <= 0 {
		return nil, errors.New("worker: epochs must be > 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}
	batches, err := NewBatchData(data, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	if batches.DataLength() == 0 {
		return nil, errors.New("worker: no samples to batch")
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	stats := make([]EpochStats, 0, cfg.Epochs)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		start := time.Now()
		batches.Shuffle(rng)

		totalLoss := 0.0
		for n := 0; n < batches.Batches(); n++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			indices, err := batches.Batch(n)
			if err != nil {
				return stats, err
			}
			examples, err := data.Examples(indices)
			if err != nil {
				return stats, err
			}
			loss, err := network.TrainBatch(examples)
			if err != nil {
				return stats, fmt.Errorf("epoch %d batch %d: %w", epoch, n, err)
			}
			totalLoss += loss * float64(len(examples))
			if (n+1)%cfg.LogEvery == 0 {
				log.Printf("epoch=%d batch=%d loss=%.4f", epoch, n+1, loss)
			}
		}

		accuracy, err := Evaluate(network, data)
		if err != nil {
			return stats, err
		}
		s := EpochStats{
			Epoch:    epoch,
			Loss:     totalLoss / float64(batches.DataLength()),
			Accuracy: accuracy,
			Duration: time.Since(start),
		}
		stats = append(stats, s)
		log.Printf("epoch=%d loss=%.4f accuracy=%.3f duration=%s", s.Epoch, s.Loss, s.Accuracy, s.Duration)
	}
	return stats, nil
}

// Evaluate returns the fraction of samples whose presented prediction equals
// the presentation of their expected output.
func Evaluate(network *neuralnet.NeuralNetwork, data *WorkerData) (float64, error) {
	total, correct := 0, 0
	for bundle := 0; bundle < data.Bundles(); bundle++ {
		for index := 0; index < data.Bundle(bundle).Len(); index++ {
			input, expected, err := data.Sample(SampleIndex{Bundle: bundle, Index: index})
			if err != nil {
				return 0, err
			}
			got, err := network.Predict(input)
			if err != nil {
				return 0, err
			}
			want, err := network.Structure.Presentation.Present(expected)
			if err != nil {
				return 0, err
			}
			if got == want {
				correct++
			}
			total++
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(correct) / float64(total), nil
}
