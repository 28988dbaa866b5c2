package plan

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Snapshot holds the environment features that are allowed to influence a
// plan. Continuous values are bucketed before hashing: exact coordinates or
// health fractions would make every fingerprint unique and the cache
// useless.
type Snapshot struct {
	X              int     `json:"x,omitempty"`
	Y              int     `json:"y,omitempty"`
	Z              int     `json:"z,omitempty"`
	HealthFraction float64 `json:"health_fraction,omitempty"`
	Inventory      string  `json:"inventory,omitempty"`
	TimeOfDay      string  `json:"time_of_day,omitempty"`
}

const (
	positionCell = 16 // world units per fingerprint cell
	healthStep   = 10 // percent per fingerprint bucket
)

// Fingerprint identifies a (command, context) pair for cache keying.
// Equal fingerprints imply equal cache keys.
type Fingerprint string

// FingerprintOf hashes the normalized command together with the bucketed
// context features.
func FingerprintOf(command string, ctx Snapshot) Fingerprint {
	d := xxhash.New()
	_, _ = d.WriteString(NormalizeCommand(command))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.Itoa(bucket(ctx.X, positionCell)))
	_, _ = d.WriteString(",")
	_, _ = d.WriteString(strconv.Itoa(bucket(ctx.Y, positionCell)))
	_, _ = d.WriteString(",")
	_, _ = d.WriteString(strconv.Itoa(bucket(ctx.Z, positionCell)))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.Itoa(healthBucket(ctx.HealthFraction)))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(ctx.Inventory)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(ctx.TimeOfDay)
	return Fingerprint(fmt.Sprintf("%016x", d.Sum64()))
}

// Fingerprint computes the request's own fingerprint.
func (r Request) Fingerprint() Fingerprint {
	return FingerprintOf(r.Command, r.Context)
}

func bucket(v, size int) int {
	if v < 0 {
		return (v - size + 1) / size
	}
	return v / size
}

func healthBucket(fraction float64) int {
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(fraction*100) / healthStep
}
