// Package monitor watches held positions against live quotes and
// raises exit alerts through the log, Redis-backed cooldowns and the
// WebSocket hub.
package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Position is one held stock with its exit levels. StopLoss and
// TakeProfit are absolute prices; zero means the percent rules from
// the monitor config apply instead.
type Position struct {
	Code       string  `yaml:"code" json:"code"`
	Name       string  `yaml:"name" json:"name"`
	CostPrice  float64 `yaml:"cost_price" json:"cost_price"`
	Shares     int     `yaml:"shares" json:"shares"`
	StopLoss   float64 `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit float64 `yaml:"take_profit" json:"take_profit"`
}

type positionsFile struct {
	Positions []Position `yaml:"positions"`
}

// LoadPositions reads the position book from a YAML file. Unknown
// keys are rejected so typos surface instead of silently dropping a
// level.
func LoadPositions(path string) ([]Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions file: %w", err)
	}

	var file positionsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse positions file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Positions))
	for i, pos := range file.Positions {
		if pos.Code == "" {
			return nil, fmt.Errorf("position %d: code is required", i+1)
		}
		if seen[pos.Code] {
			return nil, fmt.Errorf("position %d: duplicate code %s", i+1, pos.Code)
		}
		seen[pos.Code] = true

		if pos.CostPrice <= 0 {
			return nil, fmt.Errorf("position %s: cost_price must be positive", pos.Code)
		}
		if pos.Shares <= 0 {
			return nil, fmt.Errorf("position %s: shares must be positive", pos.Code)
		}
		if pos.StopLoss < 0 || pos.TakeProfit < 0 {
			return nil, fmt.Errorf("position %s: exit levels must not be negative", pos.Code)
		}
		if pos.StopLoss > 0 && pos.TakeProfit > 0 && pos.StopLoss >= pos.TakeProfit {
			return nil, fmt.Errorf("position %s: stop_loss must be below take_profit", pos.Code)
		}
	}

	return file.Positions, nil
}
