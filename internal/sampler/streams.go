package sampler

import (
	"encoding/binary"
	"io"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Streams hands out independent random sources keyed by (stage, entity).
// The same seed, stage and key always yield the same sequence, whatever
// order or goroutine the entities are generated on.
type Streams struct {
	seed int64
}

func NewStreams(seed int64) Streams {
	return Streams{seed: seed}
}

func (s Streams) Seed() int64 {
	return s.seed
}

// Stream returns a fresh source for one entity of one stage. The PCG state
// is seeded with two independent 64-bit hashes, so distinct keys do not
// share a sequence in practice.
func (s Streams) Stream(stage string, key int64) *rand.Rand {
	return rand.New(rand.NewPCG(s.derive(stage, key, 0), s.derive(stage, key, 1)))
}

func (s Streams) derive(stage string, key int64, lane byte) uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(s.seed))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(key))
	buf[16] = lane

	d := xxhash.New()
	_, _ = d.Write(buf[:8])
	_, _ = d.WriteString(stage)
	_, _ = d.Write(buf[8:])
	return d.Sum64()
}

// Reader adapts r to an io.Reader, e.g. for uuid.NewRandomFromReader.
func Reader(r *rand.Rand) io.Reader {
	return randReader{r}
}

type randReader struct {
	r *rand.Rand
}

func (rr randReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], rr.r.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}
