// Package id generates ULIDs for refresh cycles and API requests.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs. The zero value is not usable; use
// NewGenerator.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewGenerator(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
		now:     now,
	}
}

// New returns the next ULID. IDs from the same millisecond stay
// lexicographically increasing.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// only on entropy exhaustion within one millisecond
		panic(err)
	}
	return id.String()
}

var std = NewGenerator(cryptoSeed(), nil)

func cryptoSeed() int64 {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed
}

// New returns a ULID from the process-wide generator.
func New() string {
	return std.New()
}

// Time extracts the millisecond timestamp encoded in a ULID.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
