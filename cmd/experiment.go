package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fleetsim/fleetsim/sim/fleet"
)

// Experiment is one invocation: a config and the seeds to run it with.
type Experiment struct {
	Preset string
	Seeds  []int64
	Config fleet.Config
}

// experimentFile is the on-disk YAML shape. Config is kept as a raw node so
// it can be decoded strictly on top of the preset it names.
type experimentFile struct {
	Preset string    `yaml:"preset"`
	Seeds  []int64   `yaml:"seeds"`
	Config yaml.Node `yaml:"config"`
}

// LoadExperiment reads and validates an experiment YAML file. Unknown keys
// are errors.
func LoadExperiment(path string) (*Experiment, error) {
	exp, err := readExperiment(path)
	if err != nil {
		return nil, err
	}
	if err := exp.Config.Validate(); err != nil {
		return nil, fmt.Errorf("experiment file %s: %w", path, err)
	}
	return exp, nil
}

// readExperiment reads an experiment YAML file without validating the
// config, so that command-line overrides can still be layered on top.
func readExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment file: %w", err)
	}
	exp, err := DecodeExperiment(data)
	if err != nil {
		return nil, fmt.Errorf("parsing experiment file %s: %w", path, err)
	}
	return exp, nil
}

// ParseExperiment decodes an experiment and validates its config.
func ParseExperiment(data []byte) (*Experiment, error) {
	exp, err := DecodeExperiment(data)
	if err != nil {
		return nil, err
	}
	if err := exp.Config.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

// DecodeExperiment decodes an experiment in two passes: the outer document
// picks the preset, then the config section is decoded over that preset so
// omitted fields keep the preset's values. The result is not validated.
func DecodeExperiment(data []byte) (*Experiment, error) {
	var file experimentFile
	if err := strictDecode(data, &file); err != nil {
		return nil, err
	}

	name := file.Preset
	if name == "" {
		name = "baseline"
	}
	preset, err := LookupPreset(name)
	if err != nil {
		return nil, err
	}
	exp := &Experiment{Preset: name, Seeds: preset.Seeds, Config: preset.Config}

	if !file.Config.IsZero() {
		raw, err := yaml.Marshal(&file.Config)
		if err != nil {
			return nil, fmt.Errorf("re-encoding config section: %w", err)
		}
		if err := strictDecode(raw, &exp.Config); err != nil {
			return nil, fmt.Errorf("config section: %w", err)
		}
	}
	if len(file.Seeds) > 0 {
		exp.Seeds = file.Seeds
	}
	return exp, nil
}

// strictDecode decodes YAML rejecting unknown fields. An empty document is not an error.
func strictDecode(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// MarshalExperiment renders an experiment back to its YAML file form.
func MarshalExperiment(exp *Experiment) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(exp.Config); err != nil {
		return nil, err
	}
	return yaml.Marshal(experimentFile{Preset: exp.Preset, Seeds: exp.Seeds, Config: node})
}
