package session

import (
	"io"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/termhost/backend/internal/logger"
)

const (
	// readChunkSize is the maximum size of a single PTY read.
	readChunkSize = 16 * 1024

	// flushInterval caps perceived latency at roughly sixty updates per
	// second while avoiding event spam for high-throughput output.
	flushInterval = 16 * time.Millisecond

	// flushThreshold flushes the text buffer immediately once it grows past
	// this size, even mid-interval.
	flushThreshold = 64 * 1024
)

// outputPump drains raw bytes from the PTY reader, decodes them incrementally
// to valid UTF-8 and forwards time- and size-bounded batches to the host. A
// dedicated goroutine performs the blocking reads; the decode/batch loop runs
// on the pump's own goroutine. Both finish before run returns.
type outputPump struct {
	sessionID string
	reader    io.ReadCloser
	host      Host
	recorder  *logger.AsciinemaLogger // nil when recording is disabled
}

func newOutputPump(sessionID string, reader io.ReadCloser, host Host, recorder *logger.AsciinemaLogger) *outputPump {
	return &outputPump{
		sessionID: sessionID,
		reader:    reader,
		host:      host,
		recorder:  recorder,
	}
}

// run pumps until the byte stream ends or the host goes away.
func (p *outputPump) run() {
	chunks := make(chan []byte, 32)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(chunks)
		defer p.reader.Close()

		buf := make([]byte, readChunkSize)
		for {
			n, err := p.reader.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-done:
					return
				}
			}
			// A zero-byte read or any error ends the stream.
			if err != nil || n == 0 {
				return
			}
		}
	}()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var pendingBytes []byte // undecoded tail, at most one incomplete rune after decoding
	var text []byte         // decoded output awaiting flush

	// flush emits the accumulated text as one data event and clears the
	// buffer. An empty buffer never produces an event.
	flush := func() bool {
		if len(text) == 0 {
			return true
		}
		batch := string(text)
		text = text[:0]

		if p.recorder != nil {
			if err := p.recorder.WriteOutput([]byte(batch)); err != nil {
				log.Printf("session %s: recording write failed: %v", p.sessionID, err)
			}
		}
		if err := p.host.Emit(p.sessionID, DataEvent(batch)); err != nil {
			log.Printf("session %s: failed to emit terminal data: %v", p.sessionID, err)
			return false
		}
		return true
	}

	// stop unblocks the reader goroutine and drains whatever it had in
	// flight, then joins it.
	stop := func() {
		close(done)
		for range chunks {
		}
		wg.Wait()
	}

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// End of stream: force-decode the remainder. An incomplete
				// trailing sequence becomes a single replacement character
				// instead of being withheld forever.
				pendingBytes, text = decodePending(pendingBytes, text)
				if len(pendingBytes) > 0 {
					text = utf8.AppendRune(text, utf8.RuneError)
					pendingBytes = nil
				}
				flush()
				wg.Wait()
				return
			}

			pendingBytes = append(pendingBytes, chunk...)
			pendingBytes, text = decodePending(pendingBytes, text)

			if len(text) >= flushThreshold {
				if !flush() {
					stop()
					return
				}
			}

		case <-ticker.C:
			if !flush() {
				stop()
				return
			}
		}
	}
}

// decodePending moves the longest valid UTF-8 prefix of raw into text. An
// incomplete trailing multi-byte sequence stays in raw awaiting more bytes; a
// byte that is invalid at its position is dropped and replaced with one
// U+FFFD, and decoding resumes at the following byte. A rune split across
// read boundaries is therefore never emitted truncated.
func decodePending(raw, text []byte) (remaining, decoded []byte) {
	if utf8.Valid(raw) {
		text = append(text, raw...)
		return raw[:0], text
	}

	for len(raw) > 0 {
		if !utf8.FullRune(raw) {
			break
		}
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size == 1 {
			raw = raw[1:]
			text = utf8.AppendRune(text, utf8.RuneError)
			continue
		}
		text = append(text, raw[:size]...)
		raw = raw[size:]
	}

	return raw, text
}
