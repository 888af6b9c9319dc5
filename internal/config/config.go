package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"ecdrivers/ecmatrix"
)

var ErrGeometry = errors.New("config: rows and cols must fit the matrix driver")

// Serial is the console port of the keyboard.
type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTT is the optional snapshot broker. An empty broker disables publishing.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// Tuning controls the actuation suggestion.
type Tuning struct {
	Sigma   float64 `yaml:"sigma"`
	Samples int     `yaml:"samples"`
}

// Mux names the GPIO lines driving the column multiplexers.
type Mux struct {
	S0  string `yaml:"s0"`
	S1  string `yaml:"s1"`
	S2  string `yaml:"s2"`
	EN1 string `yaml:"en1"`
	EN2 string `yaml:"en2"`
}

// Bench describes a Raspberry Pi rig wired to the selector lines.
type Bench struct {
	Rows      []string      `yaml:"rows"`
	Mux       Mux           `yaml:"mux"`
	Discharge string        `yaml:"discharge"`
	Dwell     time.Duration `yaml:"dwell"`
}

// Profile is the yaml description of one board.
type Profile struct {
	Name      string `yaml:"name"`
	Rows      uint8  `yaml:"rows"`
	Cols      uint8  `yaml:"cols"`
	Actuation uint8  `yaml:"actuation"`
	Serial    Serial `yaml:"serial"`
	MQTT      MQTT   `yaml:"mqtt"`
	Tuning    Tuning `yaml:"tuning"`
	Bench     Bench  `yaml:"bench"`
}

// Default returns the profile of the 5x15 eevee board.
func Default() Profile {
	return Profile{
		Name:      "eevee",
		Rows:      5,
		Cols:      15,
		Actuation: ecmatrix.DefaultActuation,
		Serial:    Serial{Baud: 115200},
		MQTT:      MQTT{ClientID: "ecmon", Topic: "ecmatrix/snapshot"},
		Tuning:    Tuning{Sigma: 4, Samples: 200},
		Bench:     Bench{Dwell: 500 * time.Millisecond},
	}
}

// Parse reads a profile on top of the defaults.
func Parse(data []byte) (Profile, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	if p.Rows == 0 || p.Cols == 0 || p.Rows > ecmatrix.MaxRows || p.Cols > ecmatrix.MaxCols {
		return Profile{}, fmt.Errorf("%w: %dx%d", ErrGeometry, p.Rows, p.Cols)
	}
	if p.Actuation == 0 {
		p.Actuation = ecmatrix.DefaultActuation
	}
	return p, nil
}

// Load reads a profile file. An empty path returns the defaults.
func Load(path string) (Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	p, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
