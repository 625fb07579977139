package ids

import (
	"strconv"
	"sync"
	"time"
)

// Snowflake-style ids: 41 bits of milliseconds since a fixed epoch,
// 10 bits of node, 12 bits of sequence. Used for connection and message
// identifiers so they sort by creation time.

type generator struct {
	mu       sync.Mutex
	epochMS  int64
	nodeID   int64 // 0~1023
	seq      int64 // 0~4095
	lastTSMS int64
}

var (
	defaultGen *generator
	once       sync.Once
)

func initDefault() {
	once.Do(func() {
		defaultGen = &generator{
			epochMS: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			nodeID:  1,
		}
	})
}

func Generate() int64 {
	initDefault()
	return defaultGen.next()
}

func GenerateString() string {
	return strconv.FormatInt(Generate(), 10)
}

// SetNodeID pins the node bits; call once from main before serving.
func SetNodeID(nodeID int64) {
	initDefault()
	if nodeID < 0 || nodeID > 1023 {
		nodeID = 1
	}
	defaultGen.nodeID = nodeID
}

func (g *generator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		now := time.Now().UnixMilli()
		if now < g.lastTSMS {
			// clock went backwards, wait it out
			time.Sleep(time.Duration(g.lastTSMS-now) * time.Millisecond)
			continue
		}
		if now == g.lastTSMS {
			g.seq = (g.seq + 1) & 0xFFF
			if g.seq == 0 {
				for now <= g.lastTSMS {
					now = time.Now().UnixMilli()
				}
			}
		} else {
			g.seq = 0
		}
		g.lastTSMS = now

		ts := (now - g.epochMS) & ((1 << 41) - 1)
		return (ts << 22) | (g.nodeID << 12) | g.seq
	}
}
