package kex

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/eapache/go-resiliency/breaker"
	"github.com/eapache/queue"
)

// Broker is one addressable cluster endpoint: host, port, node id, and
// (once connected) an underlying socket, per spec.md section 3. A
// negative NodeID denotes a bootstrap entry whose identity has not yet
// been confirmed by a Metadata response.
type Broker struct {
	NodeID int32
	Host   string
	Port   int32

	cfg *Config

	mu      sync.Mutex
	conn    net.Conn
	br      *breaker.Breaker
	closed  bool

	asyncMu    sync.Mutex
	asyncQueue *queue.Queue
	asyncWake  chan struct{}
	asyncOnce  sync.Once
}

// newBroker constructs a Broker record without dialing. Call connect to
// establish the socket.
func newBroker(nodeID int32, host string, port int32, cfg *Config) *Broker {
	return &Broker{
		NodeID:     nodeID,
		Host:       host,
		Port:       port,
		cfg:        cfg,
		br:         breaker.New(3, 1, 10*time.Second),
		asyncQueue: queue.New(),
		asyncWake:  make(chan struct{}, 1),
	}
}

func (b *Broker) addr() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// connect dials the broker's socket, per spec.md section 4.2's
// create(host, port, ssl_opts, use_ssl).
func (b *Broker) connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return nil
	}
	conn, err := dialBroker(ctx, b.cfg, b.addr())
	if err != nil {
		return ErrDisconnected
	}
	b.conn = conn
	b.closed = false
	return nil
}

// connected reports whether this broker currently owns a live socket,
// per spec.md section 4.2's connected?.
func (b *Broker) connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && !b.closed
}

// sendSync writes one framed request and reads exactly one framed
// response, guarded by a per-broker circuit breaker so a broker that
// keeps timing out stops being hammered, per SPEC_FULL.md section 4.2.
func (b *Broker) sendSync(frame []byte, timeout time.Duration) ([]byte, error) {
	var resp []byte
	err := b.br.Run(func() error {
		r, sendErr := b.sendSyncLocked(frame, timeout)
		if sendErr != nil {
			return sendErr
		}
		resp = r
		return nil
	})
	if err == breaker.ErrBreakerOpen {
		return nil, ErrDisconnected
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *Broker) sendSyncLocked(frame []byte, timeout time.Duration) ([]byte, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, ErrDisconnected
	}
	deadline := time.Now().Add(timeout)
	if err := writeFrame(conn, frame, deadline); err != nil {
		return nil, err
	}
	resp, err := readFrame(conn, deadline)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// sendAsync enqueues frame for fire-and-forget delivery, per spec.md
// section 4.2's send_async, backed by an eapache/queue ring buffer
// drained by a dedicated goroutine so a Produce with required_acks=0
// never blocks on socket write contention.
func (b *Broker) sendAsync(frame []byte) {
	b.asyncOnce.Do(func() { go b.drainAsync() })
	b.asyncMu.Lock()
	b.asyncQueue.Add(frame)
	b.asyncMu.Unlock()
	select {
	case b.asyncWake <- struct{}{}:
	default:
	}
}

func (b *Broker) drainAsync() {
	for range b.asyncWake {
		for {
			b.asyncMu.Lock()
			if b.asyncQueue.Length() == 0 {
				b.asyncMu.Unlock()
				break
			}
			frame := b.asyncQueue.Peek().([]byte)
			b.asyncQueue.Remove()
			b.asyncMu.Unlock()

			b.mu.Lock()
			conn := b.conn
			b.mu.Unlock()
			if conn == nil {
				continue
			}
			_ = writeFrame(conn, frame, time.Now().Add(b.cfg.SyncTimeout))
		}
	}
}

// close shuts the broker's socket down exactly once, per spec.md
// section 5's "sockets are closed exactly once" resource rule.
func (b *Broker) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.conn == nil {
		b.closed = true
		return nil
	}
	err := b.conn.Close()
	b.closed = true
	if err != nil {
		return err
	}
	return nil
}
