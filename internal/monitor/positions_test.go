package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePositions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "positions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPositions(t *testing.T) {
	path := writePositions(t, `
positions:
  - code: "600000"
    name: 浦发银行
    cost_price: 7.85
    shares: 500
    stop_loss: 7.20
    take_profit: 9.50
  - code: "000858"
    name: 五粮液
    cost_price: 142.30
    shares: 100
`)

	positions, err := LoadPositions(path)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "600000", positions[0].Code)
	assert.Equal(t, "浦发银行", positions[0].Name)
	assert.InDelta(t, 7.85, positions[0].CostPrice, 1e-9)
	assert.Equal(t, 500, positions[0].Shares)
	assert.InDelta(t, 7.20, positions[0].StopLoss, 1e-9)
	assert.InDelta(t, 9.50, positions[0].TakeProfit, 1e-9)

	assert.Zero(t, positions[1].StopLoss)
	assert.Zero(t, positions[1].TakeProfit)
}

func TestLoadPositionsEmptyFile(t *testing.T) {
	path := writePositions(t, "")

	positions, err := LoadPositions(path)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestLoadPositionsMissingFile(t *testing.T) {
	_, err := LoadPositions(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadPositionsRejectsUnknownKey(t *testing.T) {
	path := writePositions(t, `
positions:
  - code: "600000"
    cost_price: 7.85
    shares: 500
    stop_losss: 7.20
`)

	_, err := LoadPositions(path)
	require.Error(t, err)
}

func TestLoadPositionsRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing code",
			"positions:\n  - cost_price: 10\n    shares: 100\n",
		},
		{
			"duplicate code",
			"positions:\n  - code: \"600000\"\n    cost_price: 10\n    shares: 100\n  - code: \"600000\"\n    cost_price: 11\n    shares: 200\n",
		},
		{
			"zero cost",
			"positions:\n  - code: \"600000\"\n    cost_price: 0\n    shares: 100\n",
		},
		{
			"zero shares",
			"positions:\n  - code: \"600000\"\n    cost_price: 10\n    shares: 0\n",
		},
		{
			"negative stop",
			"positions:\n  - code: \"600000\"\n    cost_price: 10\n    shares: 100\n    stop_loss: -1\n",
		},
		{
			"stop above take",
			"positions:\n  - code: \"600000\"\n    cost_price: 10\n    shares: 100\n    stop_loss: 12\n    take_profit: 11\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writePositions(t, tc.content)
			_, err := LoadPositions(path)
			require.Error(t, err)
		})
	}
}
