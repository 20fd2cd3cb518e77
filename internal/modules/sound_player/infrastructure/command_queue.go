package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// defaultCommandBufferSize is the number of engine commands that may wait for execution.
	defaultCommandBufferSize = 64

	// defaultCommandTimeout bounds a single engine command.
	defaultCommandTimeout = 30 * time.Second
)

type command struct {
	name string
	run  func(ctx context.Context) error
}

// commandQueue runs engine commands one at a time on a worker goroutine, so
// callers never block and commands take effect in the order they were issued.
type commandQueue struct {
	engine   string
	commands chan command
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closed bool
	mu     sync.RWMutex
}

func newCommandQueue(engine string, bufferSize int, timeout time.Duration) *commandQueue {
	if bufferSize <= 0 {
		bufferSize = defaultCommandBufferSize
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &commandQueue{
		engine:   engine,
		commands: make(chan command, bufferSize),
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}

	q.wg.Add(1)
	go q.run()

	return q
}

func (q *commandQueue) run() {
	defer q.wg.Done()
	for cmd := range q.commands {
		q.execute(cmd)
	}
}

func (q *commandQueue) execute(cmd command) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	if err := cmd.run(ctx); err != nil {
		slog.Error("failed to execute engine command",
			"engine", q.engine,
			"command", cmd.name,
			"error", err,
		)
		return
	}

	slog.Debug("executed engine command", "engine", q.engine, "command", cmd.name)
}

// enqueue schedules run for execution.
// Non-blocking: if the queue is full, the command is dropped with a warning.
func (q *commandQueue) enqueue(name string, run func(ctx context.Context) error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		slog.Warn("dropping command for closed engine", "engine", q.engine, "command", name)
		return
	}

	select {
	case q.commands <- command{name: name, run: run}:
	default:
		slog.Warn("command queue full, dropping command", "engine", q.engine, "command", name)
	}
}

// close cancels the context of running and queued commands, then waits for the worker to drain.
func (q *commandQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cancel()
	close(q.commands)
	q.mu.Unlock()

	q.wg.Wait()
}
