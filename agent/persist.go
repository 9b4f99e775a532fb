package agent

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store file names under the data directory.
const (
	cacheFile      = "cache.json"
	memoryFile     = "memory.json"
	predictionFile = "predictions.json"
	learningFile   = "learning.json"
)

// FlushStores writes every persistent store to the data directory.
// A nil data directory configuration disables persistence silently.
func (a *Agent) FlushStores() error {
	if a.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	stores := []struct {
		name     string
		snapshot func() ([]byte, error)
	}{
		{cacheFile, a.cache.Snapshot},
		{memoryFile, a.memory.Snapshot},
		{predictionFile, a.predictor.Snapshot},
		{learningFile, a.learning.Snapshot},
	}
	for _, s := range stores {
		data, err := s.snapshot()
		if err != nil {
			return fmt.Errorf("snapshotting %s: %w", s.name, err)
		}
		path := filepath.Join(a.dataDir, s.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
	}
	a.log.Debug("stores flushed", zap.String("dir", a.dataDir))
	return nil
}

// LoadStores restores the persistent stores from the data directory.
// Missing files are fine (first run); corrupt files are skipped with a
// warning so one bad store cannot take the session down.
func (a *Agent) LoadStores() error {
	if a.dataDir == "" {
		return nil
	}

	stores := []struct {
		name string
		load func([]byte) error
	}{
		{cacheFile, a.cache.Load},
		{memoryFile, a.memory.Load},
		{predictionFile, a.predictor.Load},
		{learningFile, a.learning.Load},
	}
	for _, s := range stores {
		path := filepath.Join(a.dataDir, s.name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.name, err)
		}
		if err := s.load(data); err != nil {
			a.log.Warn("skipping corrupt store",
				zap.String("file", s.name),
				zap.Error(err))
		}
	}
	return nil
}
