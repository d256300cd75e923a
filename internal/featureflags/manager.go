// Package featureflags evaluates runtime feature flags configured through
// FEATURE_FLAGS, e.g. "uploads=on,realtime=25%".
package featureflags

import (
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Flags gating optional FoodShare surfaces.
const (
	Uploads  = "uploads"
	Realtime = "realtime"
)

// flag is one parsed definition. rollout is the share of users, 0 to 100,
// that see it; on and off parse to 100 and 0, anything unreadable to 0.
type flag struct {
	raw     string
	rollout int
}

// Manager is immutable after NewManager and safe for concurrent use. A nil
// Manager has no flags.
type Manager struct {
	flags map[string]flag
}

// NewManager parses a comma-separated name=value list, skipping malformed pairs.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]flag)}
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		name, value = normalize(name), normalize(value)
		if !ok || name == "" || value == "" {
			continue
		}
		m.flags[name] = flag{raw: value, rollout: parseRollout(value)}
	}
	return m
}

func parseRollout(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0
	}
	pct, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return min(max(pct, 0), 100)
}

// Enabled reports whether name is on for userID. A partial rollout places each
// user in a stable bucket and is always off for anonymous callers (userID 0).
// Unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	f, ok := m.flags[name]
	switch {
	case !ok || f.rollout == 0:
		return false
	case f.rollout == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < f.rollout
}

// Names lists the configured flags in sorted order.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.flags))
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string)
	if m != nil {
		for name, f := range m.flags {
			out[name] = f.raw
		}
	}
	return out
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	for _, name := range m.Names() {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte{':'})
	h.Write(strconv.AppendUint(nil, uint64(userID), 10))
	return int(h.Sum32() % 100)
}
