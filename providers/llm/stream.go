package llm

import (
	"fmt"
	"sync"
)

// StreamSink receives each incremental text fragment of a streaming
// completion as it arrives, before the full response is available.
type StreamSink func(fragment string)

var (
	sinkMu sync.RWMutex

	// defaultSink prints fragments to stdout without a trailing newline,
	// so streamed output renders as one continuous reply.
	defaultSink StreamSink = func(fragment string) { fmt.Print(fragment) }

	sink = defaultSink
)

// SetStreamSink replaces the process-wide sink streamed fragments are
// forwarded to. Passing nil restores the stdout default.
func SetStreamSink(fn StreamSink) {
	sinkMu.Lock()
	defer sinkMu.Unlock()

	if fn == nil {
		sink = defaultSink
		return
	}
	sink = fn
}

// LogStream forwards one fragment to the current sink. Adapters call it for
// every non-empty delta during a streaming completion.
func LogStream(fragment string) {
	sinkMu.RLock()
	fn := sink
	sinkMu.RUnlock()

	fn(fragment)
}
