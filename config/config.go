package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gon/neuralnet"
)

// Layer describes one layer. Activation is ignored for the input layer.
type Layer struct {
	Size       int     `yaml:"size"`
	Activation string  `yaml:"activation"`
	Alpha      float64 `yaml:"alpha"`
	Dropout    float64 `yaml:"dropout"`
}

type Presentation struct {
	Function int `yaml:"function"`
	Alpha    int `yaml:"alpha"`
}

// Config captures the network and the runtime knobs for a training run.
type Config struct {
	Layers       []Layer      `yaml:"layers"`
	Objective    int          `yaml:"objective"`
	Optimised    bool         `yaml:"optimised"`
	Presentation Presentation `yaml:"presentation"`
	BatchSize    int          `yaml:"batch_size"`
	Epochs       int          `yaml:"epochs"`
	LearningRate float64      `yaml:"learning_rate"`
	Decay        float64      `yaml:"decay"`
	L2           float64      `yaml:"l2"`
	Workers      int          `yaml:"workers"`
	Seed         int64        `yaml:"seed"`
	LogEvery     int          `yaml:"log_every"`
	Bundles      []string     `yaml:"bundles"`
	CIFAR        []string     `yaml:"cifar"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Bundles      []string
	CIFAR        []string
	Epochs       int
	BatchSize    int
	LearningRate float64
	Workers      int
	Seed         int64
	LogEvery     int
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML without validating it. Unknown keys are rejected.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if len(o.Bundles) > 0 {
		c.Bundles = o.Bundles
	}
	if len(o.CIFAR) > 0 {
		c.CIFAR = o.CIFAR
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.Layers) < 2 {
		return fmt.Errorf("need at least 2 layers (got %d)", len(c.Layers))
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if len(c.Bundles)+len(c.CIFAR) == 0 {
		return errors.New("at least one bundle or cifar file must be set")
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return nil
}

// Network builds the network the config describes. Identifier errors are
// reported here, before any training starts.
func (c *Config) Network() (*neuralnet.NeuralNetwork, error) {
	if len(c.Layers) < 2 {
		return nil, fmt.Errorf("%w: %d layers", neuralnet.ErrInvalidStructure, len(c.Layers))
	}
	sizes := make([]int, len(c.Layers))
	dropout := make([]float64, len(c.Layers))
	functions := make([]neuralnet.ActivationFunction, 0, len(c.Layers)-1)
	for l, layer := range c.Layers {
		sizes[l] = layer.Size
		dropout[l] = layer.Dropout
		if l == 0 {
			continue
		}
		f, err := neuralnet.DetermineActivation(layer.Activation, layer.Alpha)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", l, err)
		}
		functions = append(functions, f)
	}
	presentation, err := neuralnet.DeterminePresentation(c.Presentation.Function, c.Presentation.Alpha)
	if err != nil {
		return nil, err
	}
	structure, err := neuralnet.NewNetworkStructure(sizes, functions, dropout, presentation)
	if err != nil {
		return nil, err
	}
	objective, err := neuralnet.DetermineObjective(c.Objective)
	if err != nil {
		return nil, err
	}
	optimizer := &neuralnet.SGD{LearningRate: c.LearningRate, Decay: c.Decay, L2: c.L2}
	return neuralnet.NewNeuralNetwork(structure, objective, optimizer, neuralnet.Params{
		Optimised: c.Optimised,
		Workers:   c.Workers,
		Seed:      c.Seed,
	})
}
