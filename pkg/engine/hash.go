package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// planHashLength is the number of lowercase hex characters in a plan hash.
// The length and format are part of the persisted state file contract.
const planHashLength = 12

// hashSeparator joins step IDs before hashing. It cannot appear in an ID,
// so distinct sequences never collide through concatenation.
const hashSeparator = "\n"

// ComputeHash fingerprints the ordered step-ID sequence of a plan.
// The hash is order-sensitive and membership-sensitive, and ignores
// everything about a step except its ID. It is used to verify that a
// persisted state still belongs to the plan it claims to track.
func ComputeHash(steps []Step) string {
	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID
	}
	return HashIDs(ids)
}

// HashIDs fingerprints an ordered ID sequence. Same input always produces
// the same 12-character lowercase hex output.
func HashIDs(ids []string) string {
	sum := sha256.Sum256([]byte(strings.Join(ids, hashSeparator)))
	return hex.EncodeToString(sum[:])[:planHashLength]
}
