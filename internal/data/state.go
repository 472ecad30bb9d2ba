package data

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// maxPersistedKeys caps how many processed keys a channel's state file
// keeps. When the cap is hit the lexicographically smallest keys are dropped
// first; keys carry sortable timestamps or IDs, so the most recent survive.
const maxPersistedKeys = 5000

// stateRepo persists channel dedup state as one JSON file per channel.
type stateRepo struct {
	dir string
	log *slog.Logger
}

// NewStateRepo creates a state repository rooted at dir.
func NewStateRepo(dir string, log *slog.Logger) repo.StateRepo {
	return &stateRepo{dir: dir, log: log}
}

func (r *stateRepo) path(channel string) string {
	return filepath.Join(r.dir, channel+"_state.json")
}

type setState struct {
	ProcessedKeys []string `json:"processed_keys"`
}

type mapState struct {
	Processed map[string]string `json:"processed"`
}

// LoadSet returns the channel's processed-key set. A missing or unreadable
// state file yields an empty set; processing restarts clean instead of
// crashing.
func (r *stateRepo) LoadSet(channel string) map[string]bool {
	keys := map[string]bool{}
	raw, err := os.ReadFile(r.path(channel))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("could not read state file, starting fresh", "channel", channel, "err", err)
		}
		return keys
	}
	var st setState
	if err := json.Unmarshal(raw, &st); err != nil {
		r.log.Warn("corrupted state file, starting fresh", "channel", channel, "err", err)
		return keys
	}
	for _, k := range st.ProcessedKeys {
		keys[k] = true
	}
	return keys
}

// SaveSet persists the channel's processed-key set, keeping at most
// maxPersistedKeys entries.
func (r *stateRepo) SaveSet(channel string, keys map[string]bool) error {
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	if len(sorted) > maxPersistedKeys {
		sorted = sorted[len(sorted)-maxPersistedKeys:]
	}
	return r.write(channel, setState{ProcessedKeys: sorted})
}

// LoadMap returns the channel's key-to-fingerprint state. Missing or corrupt
// files yield an empty map.
func (r *stateRepo) LoadMap(channel string) map[string]string {
	raw, err := os.ReadFile(r.path(channel))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("could not read state file, starting fresh", "channel", channel, "err", err)
		}
		return map[string]string{}
	}
	var st mapState
	if err := json.Unmarshal(raw, &st); err != nil {
		r.log.Warn("corrupted state file, starting fresh", "channel", channel, "err", err)
		return map[string]string{}
	}
	if st.Processed == nil {
		return map[string]string{}
	}
	return st.Processed
}

// SaveMap persists the channel's key-to-fingerprint state.
func (r *stateRepo) SaveMap(channel string, state map[string]string) error {
	return r.write(channel, mapState{Processed: state})
}

func (r *stateRepo) write(channel string, v interface{}) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(r.path(channel), raw, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
