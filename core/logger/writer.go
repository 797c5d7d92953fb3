package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// maxBatch bounds how many queued lines are written between two sink flushes.
const maxBatch = 64

// lineWriter fans log lines out to its sinks from a single goroutine,
// draining whatever is queued and flushing each sink once per batch.
type lineWriter struct {
	lines chan []byte
	syncs chan chan error
	quit  chan struct{}
	done  chan struct{}
	stop  sync.Once
	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newLineWriter(writers []io.Writer, bufSize int) *lineWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &lineWriter{
		lines: make(chan []byte, 256),
		syncs: make(chan chan error),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *lineWriter) run() {
	defer close(w.done)
	for {
		select {
		case line := <-w.lines:
			w.keep(w.writeBatch(line))
		case ack := <-w.syncs:
			err := w.drain()
			w.keep(err)
			ack <- err
		case <-w.quit:
			w.keep(w.drain())
			return
		}
	}
}

// drain writes every queued line and flushes the sinks.
func (w *lineWriter) drain() error {
	var errs []error
	for {
		select {
		case line := <-w.lines:
			errs = append(errs, w.writeBatch(line))
		default:
			errs = append(errs, w.flush())
			return errors.Join(errs...)
		}
	}
}

// Write queues a copy of p, blocking while the queue is full.
func (w *lineWriter) Write(p []byte) error {
	if err := w.failed(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)
	select {
	case w.lines <- line:
		return nil
	case <-w.quit:
		return errWriterClosed
	}
}

// Flush returns once every line queued before the call reached the sinks.
func (w *lineWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.syncs <- ack:
	case <-w.done:
		return w.failed()
	}
	if err := <-ack; err != nil {
		return err
	}
	return w.failed()
}

// Close writes what is still queued and stops the writer.
func (w *lineWriter) Close() error {
	w.stop.Do(func() { close(w.quit) })
	<-w.done
	return w.failed()
}

func (w *lineWriter) writeBatch(first []byte) error {
	batch := [][]byte{first}
drain:
	for len(batch) < maxBatch {
		select {
		case line := <-w.lines:
			batch = append(batch, line)
		default:
			break drain
		}
	}
	var errs []error
	for _, sink := range w.sinks {
		for _, line := range batch {
			if _, err := sink.Write(line); err != nil {
				errs = append(errs, err)
				break
			}
		}
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *lineWriter) flush() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// keep records the first sink error; later writes report it.
func (w *lineWriter) keep(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *lineWriter) failed() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
