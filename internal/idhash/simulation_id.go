package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ComputeSimulationID computes a deterministic simulation_id.
// Formula: SHA256(goal_id|params_hash|seed|num_paths|run_at_ms)
// Returns base58-encoded hash.
func ComputeSimulationID(
	goalID string,
	paramsHash string,
	seed uint64,
	numPaths int,
	runAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d",
		goalID,
		paramsHash,
		seed,
		numPaths,
		runAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// DeriveSeed derives a stable RNG seed from its parts.
// Formula: first 8 bytes (big-endian) of SHA256(part1|part2|...)
func DeriveSeed(parts ...string) uint64 {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return binary.BigEndian.Uint64(hash[:8])
}
