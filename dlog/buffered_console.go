package dlog

// Wrap the console implementation to buffer writes, yet flush in a
// timely, deterministic fashion, either buffering up to n bytes, or
// for up to t milliseconds, whichever comes first.

import (
	"bufio"
	"io"
	"sync"
	"time"
)

type bufferedConsoleT struct {
	mu               sync.Mutex
	wr               io.Writer
	bufferSize       int
	maxFlushInterval time.Duration
	baseWr           io.Writer

	daemon     bool
	stop       chan struct{}
	stopOnce   sync.Once
	daemonDone chan struct{}
}

func newBufferedConsole(
	baseWr io.Writer,
	bufferSize int,
	maxFlushInterval time.Duration) *bufferedConsoleT {

	return &bufferedConsoleT{
		baseWr:           baseWr,
		bufferSize:       bufferSize,
		maxFlushInterval: maxFlushInterval,
		stop:             make(chan struct{}),
		daemonDone:       make(chan struct{}),
	}
}

func (cb *bufferedConsoleT) Flush() error {
	type flusher interface {
		Flush() error
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if fwr, ok := cb.wr.(flusher); ok {
		return fwr.Flush()
	}
	return nil
}

// Sync flushes the buffer and then syncs the base writer when it supports it,
// which makes the console usable as a zapcore.WriteSyncer.
func (cb *bufferedConsoleT) Sync() error {
	type syncer interface {
		Sync() error
	}
	if err := cb.Flush(); err != nil {
		return err
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if swr, ok := cb.baseWr.(syncer); ok {
		return swr.Sync()
	}
	return nil
}

func (cb *bufferedConsoleT) flushDaemon() {
	defer close(cb.daemonDone)

	// Try to guarantee that we flush at least every maxFlushInterval.
	// This can result in a single extra queued flush if the
	// underlying writer takes longer maxFlushInterval.
	ticker := time.NewTicker(cb.maxFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = cb.Flush() // Ignore error.
		case <-cb.stop:
			return
		}
	}
}

// Close stops the flush daemon, waits for it to exit and flushes whatever is
// still buffered.
func (cb *bufferedConsoleT) Close() error {
	cb.stopOnce.Do(func() { close(cb.stop) })
	cb.mu.Lock()
	daemon := cb.daemon
	cb.mu.Unlock()
	if daemon {
		<-cb.daemonDone
	}
	return cb.Flush()
}

func (cb *bufferedConsoleT) Write(b []byte) (n int, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.wr == nil {
		if cb.bufferSize > 0 {
			cb.wr = bufio.NewWriterSize(cb.baseWr, cb.bufferSize)
			if cb.maxFlushInterval > 0 {
				cb.daemon = true
				go cb.flushDaemon()
			}
		} else {
			cb.wr = cb.baseWr
		}
	}
	return cb.wr.Write(b)
}
