package session

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

var adjectives = []string{
	"bold", "brave", "bright", "brisk", "calm", "clear", "cool", "crisp",
	"deft", "eager", "fair", "fast", "firm", "fond", "free", "fresh",
	"glad", "gold", "good", "grand", "great", "green", "happy", "keen",
	"kind", "lively", "lucky", "mild", "neat", "noble", "proud", "pure",
	"quick", "quiet", "rapid", "ready", "sharp", "sleek", "smart", "snappy",
	"solid", "steady", "stout", "strong", "sturdy", "sure", "sweet", "swift",
	"tidy", "trim", "true", "vivid", "warm", "wise", "witty", "zesty",
}

var nouns = []string{
	"arrow", "badge", "beam", "bell", "blade", "bloom", "bolt", "bridge",
	"brook", "cedar", "cliff", "cloud", "coral", "crane", "crest", "crown",
	"dawn", "delta", "drift", "eagle", "ember", "falcon", "fern", "field",
	"flame", "flint", "forge", "frost", "gale", "grove", "hawk", "hedge",
	"heron", "hill", "lake", "lark", "leaf", "light", "maple", "marsh",
	"mesa", "moon", "north", "oak", "orbit", "otter", "peak", "pine",
	"pond", "quartz", "rain", "reef", "ridge", "river", "rook", "sage",
	"shore", "spark", "spire", "star", "stone", "storm", "tide", "trail",
	"vale", "wave", "willow", "wind", "wing", "wren", "zenith", "zephyr",
}

// seed turns a table key into the number the name is derived from. Hex keys
// (the usual UUID prefix) are read as a number; anything else is hashed.
func seed(key string) uint64 {
	if n, err := strconv.ParseUint(key, 16, 64); err == nil {
		return n
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return uint64(h.Sum32())
}

// Derive returns the adjective-noun name for key, skipping names in taken.
// Collisions advance the noun first, then the adjective, and only when every
// pairing is used does a numeric suffix appear.
func Derive(key string, taken map[string]bool) string {
	s := seed(strings.ToLower(key))
	adj := int(s % uint64(len(adjectives)))
	noun := int((s / uint64(len(adjectives))) % uint64(len(nouns)))
	for a := 0; a < len(adjectives); a++ {
		ai := (adj + a) % len(adjectives)
		for n := 0; n < len(nouns); n++ {
			name := adjectives[ai] + "-" + nouns[(noun+n)%len(nouns)]
			if !taken[name] {
				return name
			}
		}
	}
	base := adjectives[adj] + "-" + nouns[noun]
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s-%d", base, i)
		if !taken[name] {
			return name
		}
	}
}
