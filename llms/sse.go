package llms

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// sseIdleTimeout is the constant idle window for a streaming provider call;
// if no line arrives within this window the stream fails with TimeoutError.
const sseIdleTimeout = 30 * time.Second

// sseChunkDecoder turns one raw SSE payload (the bytes after "data: ") into
// zero or more StreamEvents. Each adapter supplies its own decoder since the
// upstream JSON shapes differ, while the read loop itself (idle timeout,
// cancellation, line splitting, [DONE] handling) is shared.
type sseChunkDecoder func(payload []byte, emit func(StreamEvent)) (done bool, err error)

// readSSE drives body through the shared SSE state machine, decoding each
// `data: ` line with decode and sending events to out. It always ends with
// a terminal EventDone, then closes out, and always releases body.
func readSSE(ctx context.Context, body io.ReadCloser, decode sseChunkDecoder, out chan<- StreamEvent) {
	defer body.Close()
	defer func() {
		out <- StreamEvent{Type: EventDone}
		close(out)
	}()

	type lineResult struct {
		line []byte
		err  error
	}

	reader := bufio.NewReader(body)
	lines := make(chan lineResult, 1)

	readNext := func() {
		go func() {
			l, err := reader.ReadBytes('\n')
			lines <- lineResult{line: l, err: err}
		}()
	}

	for {
		if err := ctx.Err(); err != nil {
			out <- StreamEvent{Err: newAbortOrCause(ctx)}
			return
		}

		readNext()

		select {
		case <-ctx.Done():
			out <- StreamEvent{Err: newAbortOrCause(ctx)}
			return
		case res := <-lines:
			if res.err != nil {
				if res.err == io.EOF {
					return
				}
				out <- StreamEvent{Err: res.err}
				return
			}
			line := strings.TrimSpace(string(res.line))
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				return
			}
			done, err := decode([]byte(payload), func(ev StreamEvent) { out <- ev })
			if err != nil {
				out <- StreamEvent{Err: err}
				return
			}
			if done {
				return
			}
		case <-time.After(sseIdleTimeout):
			out <- StreamEvent{Err: newIdleTimeoutError()}
			return
		}
	}
}

// jsonPeek reports whether payload parses as JSON at all, letting callers
// skip genuinely malformed chunks without failing the whole stream.
func jsonPeek(payload []byte, v interface{}) bool {
	return json.Unmarshal(payload, v) == nil
}
