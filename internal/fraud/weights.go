package fraud

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// WeightTable maps indicator names to their configured weight in [0,1].
// The weights must sum to <= 1.0 so the total risk reads as a percentage.
type WeightTable map[string]float64

// DefaultWeights is the standard vehicle-claim indicator table. The set of
// keys defines the exact indicator set the scorer accepts.
func DefaultWeights() WeightTable {
	return WeightTable{
		"claimant_exists":              0.12,
		"policy_status_check":          0.15,
		"item_insurance_check":         0.13,
		"item_pricing_benchmarking":    0.18,
		"ghost_claims_vehicle_check":   0.12,
		"vehicle_registration_match":   0.05,
		"rapid_policy_claims_check":    0.10,
		"drivers_license_status_check": 0.15,
	}
}

// Validate checks that every weight is in [0,1] and the table sums to <= 1.0.
func (w WeightTable) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("weight table is empty")
	}
	var sum float64
	for name, weight := range w {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("indicator %q has weight %v outside [0,1]", name, weight)
		}
		sum += weight
	}
	if sum > 1.0+1e-9 {
		return fmt.Errorf("weight table sums to %v, must be <= 1.0", sum)
	}
	return nil
}

type weightsFile struct {
	Indicators WeightTable `yaml:"indicators"`
}

var (
	mu      sync.RWMutex
	current = DefaultWeights()
)

// Weights returns the active weight table. Callers must not mutate it.
func Weights() WeightTable {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// LoadWeights replaces the active table from a YAML file of the form
//
//	indicators:
//	  claimant_exists: 0.12
//	  ...
//
// An invalid file leaves the active table untouched.
func LoadWeights(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read weights: %w", err)
	}
	var f weightsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("unmarshal weights: %w", err)
	}
	if err := f.Indicators.Validate(); err != nil {
		return fmt.Errorf("invalid weights in %s: %w", path, err)
	}
	mu.Lock()
	current = f.Indicators
	mu.Unlock()
	return nil
}

// WatchWeights reloads the weight file whenever it changes on disk. It
// returns a stop function. Reload failures are logged and skipped so a bad
// edit never clears a good table.
func WatchWeights(path string, logger *zap.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := LoadWeights(path); err != nil {
					logger.Warn("Weight table reload failed, keeping previous table",
						zap.String("path", path),
						zap.Error(err),
					)
					continue
				}
				logger.Info("Weight table reloaded", zap.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Weight file watcher error", zap.Error(err))
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
