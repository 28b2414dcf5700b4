// Package id generates the prefixed ULIDs that label engines and stream
// clients in logs. ULIDs sort by creation time, so log lines for the same
// process read in order.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EngineID identifies one tracing engine instance.
type EngineID string

// StreamID identifies one dashboard websocket client.
type StreamID string

const (
	EnginePrefix = "eng"
	StreamPrefix = "strm"
)

func (id EngineID) String() string { return string(id) }
func (id StreamID) String() string { return string(id) }

// Generator produces monotonic ULIDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator wraps entropy in a monotonic reader so ids minted within the
// same millisecond still sort in creation order.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate returns a ULID stamped with the current time.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix returns "<prefix>_<ulid>".
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

func NewEngineID() EngineID { return EngineID(Default().WithPrefix(EnginePrefix)) }
func NewStreamID() StreamID { return StreamID(Default().WithPrefix(StreamPrefix)) }

// Timestamp extracts the creation time from a bare or prefixed id.
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
