// File: internal/mediator/mediator_test.go
// Author: momentics <momentics@gmail.com>

package mediator

import (
	"sync"
	"testing"
	"time"

	"github.com/momentics/ioc-mediator/api"
	"github.com/momentics/ioc-mediator/internal/config"
	"github.com/momentics/ioc-mediator/internal/diag"
	"github.com/momentics/ioc-mediator/internal/framer"
	"github.com/momentics/ioc-mediator/internal/reqpool"
	"github.com/momentics/ioc-mediator/internal/whitelist"
)

// fakeChannelIO is an in-memory ChannelIO used to drive the rx/tx pipeline
// without real devices.
type fakeChannelIO struct {
	mu      sync.Mutex
	enabled map[api.ChannelID]bool
	xmits   map[api.ChannelID][][]byte
}

func newFakeChannelIO() *fakeChannelIO {
	f := &fakeChannelIO{enabled: make(map[api.ChannelID]bool), xmits: make(map[api.ChannelID][][]byte)}
	for _, spec := range config.ChannelTableSpec {
		f.enabled[spec.ID] = spec.Enabled
	}
	return f
}

func (f *fakeChannelIO) Recv(id api.ChannelID, buf []byte) (int, error) { return 0, nil }

func (f *fakeChannelIO) Xmit(id api.ChannelID, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), buf...)
	f.xmits[id] = append(f.xmits[id], cp)
	return len(buf), nil
}

func (f *fakeChannelIO) FD(id api.ChannelID) (uintptr, bool)   { return 0, false }
func (f *fakeChannelIO) Kind(id api.ChannelID) api.ChannelKind { return api.KindNative }
func (f *fakeChannelIO) Enabled(id api.ChannelID) bool         { return f.enabled[id] }
func (f *fakeChannelIO) Channels() []api.ChannelID             { return nil }

func (f *fakeChannelIO) xmitCount(id api.ChannelID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.xmits[id])
}

func (f *fakeChannelIO) lastXmit(id api.ChannelID) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	xs := f.xmits[id]
	return xs[len(xs)-1]
}

// noopCloser satisfies io.Closer for test handles that never open a real
// chantab.Table.
type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// noopReactor satisfies api.Reactor for test handles that drive the rx/tx
// pipeline directly instead of through a real epoll core task.
type noopReactor struct{}

func (noopReactor) Register(fd uintptr, events api.FDEventType, cb api.FDCallback) error { return nil }
func (noopReactor) Unregister(fd uintptr) error                                          { return nil }
func (noopReactor) Poll(timeoutMs int) error                                             { return nil }
func (noopReactor) Close() error                                                         { return nil }

// newTestHandle builds a Handle with a fake ChannelIO and no-op reactor/
// chtab, for directly exercising the rx/tx worker pipeline.
func newTestHandle(t *testing.T, poolCap int) (*Handle, *fakeChannelIO) {
	t.Helper()
	chio := newFakeChannelIO()
	h := &Handle{
		cfg:      DefaultConfig(),
		chio:     chio,
		chtab:    noopCloser{},
		reactor:  noopReactor{},
		pool:     reqpool.NewPool(poolCap, 512),
		ring:     framer.NewRing(4096),
		codec:    framer.DefaultCodec{},
		rxFil:    whitelist.New(config.RxTable()),
		txFil:    whitelist.New(config.TxTable()),
		stats:    diag.New(),
		ticker:   diag.NewTicker(),
		coreDone: make(chan struct{}),
		rxDone:   make(chan struct{}),
		txDone:   make(chan struct{}),
	}
	close(h.coreDone) // no real core task in this test harness
	go h.rxWorker()
	go h.txWorker()
	return h, chio
}

func (h *Handle) shutdownTestHandle() {
	h.pool.MarkClosing()
	h.pool.BroadcastRx()
	<-h.rxDone
	h.pool.BroadcastTx()
	<-h.txDone
}

func TestVirtualUARTFrameRoutesToLifecycle(t *testing.T) {
	h, chio := newTestHandle(t, 4)
	defer h.shutdownTestHandle()

	srv, err := framer.EncodeService(nil, []framer.Element{{Group: config.GrpLOC, Signal: config.SigATEMP, Value: []byte{1}}})
	if err != nil {
		t.Fatalf("encode service: %v", err)
	}
	var codec framer.DefaultCodec
	link, err := codec.Encode(nil, srv)
	if err != nil {
		t.Fatalf("encode link: %v", err)
	}
	h.ring.CopyToRing(link)
	framer.BuildRequest(h.ring, h.codec, h.pool, h.stats)

	deadline := time.After(2 * time.Second)
	for chio.xmitCount(api.ChLifecycle) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for lifecycle xmit")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNativeReadEnqueuesToTxDirectly(t *testing.T) {
	h, chio := newTestHandle(t, 4)
	defer h.shutdownTestHandle()

	srv, err := framer.EncodeService(nil, []framer.Element{{Signal: config.SigATEMP, Value: []byte{2}}})
	if err != nil {
		t.Fatalf("encode service: %v", err)
	}
	idx, ok := h.pool.Free.DequeueFree()
	if !ok {
		t.Fatal("expected a free slot")
	}
	req := h.pool.Get(idx)
	copy(req.Buf, srv)
	req.SrvLen = len(srv)
	req.Channel = api.ChSignal
	req.Kind = api.KindRaw
	h.pool.Tx.Enqueue(idx, api.PosTail)

	deadline := time.After(2 * time.Second)
	for chio.xmitCount(api.ChVirtualUART) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for virtual UART xmit")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTxWhitelistDropsNonWhitelistedSignal(t *testing.T) {
	h, chio := newTestHandle(t, 4)
	defer h.shutdownTestHandle()

	srv, err := framer.EncodeService(nil, []framer.Element{
		{Signal: config.SigSTFR, Value: []byte{9}},  // not in the tx whitelist
		{Signal: config.SigATEMP, Value: []byte{3}}, // individually whitelisted
	})
	if err != nil {
		t.Fatalf("encode service: %v", err)
	}
	idx, ok := h.pool.Free.DequeueFree()
	if !ok {
		t.Fatal("expected a free slot")
	}
	req := h.pool.Get(idx)
	copy(req.Buf, srv)
	req.SrvLen = len(srv)
	h.pool.Tx.Enqueue(idx, api.PosTail)

	deadline := time.After(2 * time.Second)
	for chio.xmitCount(api.ChVirtualUART) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for virtual UART xmit")
		case <-time.After(5 * time.Millisecond):
		}
	}

	frame := chio.lastXmit(api.ChVirtualUART)
	var codec framer.DefaultCodec
	srvOff := codec.HeaderLen()
	srvLen := int(frame[1])
	elems, err := framer.DecodeService(frame[srvOff : srvOff+srvLen])
	if err != nil {
		t.Fatalf("decode emitted service frame: %v", err)
	}
	for _, e := range elems {
		if config.SignalID(e.Signal) == config.SigSTFR {
			t.Fatal("SigSTFR must not appear in the emitted frame: not tx-whitelisted")
		}
	}
	var sawATEMP bool
	for _, e := range elems {
		if config.SignalID(e.Signal) == config.SigATEMP {
			sawATEMP = true
		}
	}
	if !sawATEMP {
		t.Fatal("SigATEMP is tx-whitelisted and must still be forwarded")
	}
}

func TestBuildRequestDropsExactlyOneOnPoolExhaustion(t *testing.T) {
	const capacity = 2
	pool := reqpool.NewPool(capacity, 512)
	ring := framer.NewRing(4096)
	var codec framer.DefaultCodec
	stats := diag.New()

	// Deliver capacity+1 frames back to back with nothing draining pool.Rx:
	// the first `capacity` consume every free slot, the last one finds the
	// free queue exhausted.
	for i := 0; i < capacity+1; i++ {
		srv, err := framer.EncodeService(nil, []framer.Element{{Signal: config.SigATEMP, Value: []byte{byte(i)}}})
		if err != nil {
			t.Fatalf("encode service %d: %v", i, err)
		}
		link, err := codec.Encode(nil, srv)
		if err != nil {
			t.Fatalf("encode link %d: %v", i, err)
		}
		ring.CopyToRing(link)
	}
	framer.BuildRequest(ring, codec, pool, stats)

	if got := stats.Snapshot().Drops; got != 1 {
		t.Fatalf("drops=%d, want exactly 1", got)
	}
	if pool.Rx.Len() != capacity {
		t.Fatalf("rx queue len=%d, want %d: the capacity frames that had a free slot", pool.Rx.Len(), capacity)
	}

	// Drain those capacity frames and confirm none were corrupted by the drop.
	for i := 0; i < capacity; i++ {
		idx, ok := pool.Rx.WaitDequeue()
		if !ok {
			t.Fatalf("frame %d: expected a queued request", i)
		}
		req := pool.Get(idx)
		srvOff := codec.HeaderLen()
		elems, err := framer.DecodeService(req.Buf[srvOff : srvOff+req.SrvLen])
		if err != nil || len(elems) != 1 || elems[0].Value[0] != byte(i) {
			t.Fatalf("frame %d corrupted: elems=%v err=%v", i, elems, err)
		}
	}
}

func TestInitRejectsZeroBootReason(t *testing.T) {
	// ParseInit runs before any device is opened, so this is safe to call
	// even on a host with no real IOC channels present.
	h, err := Init("/tmp/vuart,0")
	if err == nil {
		t.Fatal("expected an error for a zero boot reason")
	}
	if h != nil {
		t.Fatal("expected a nil handle on init failure")
	}
}

func TestRouteRequestForwardsOnNextQueueMatch(t *testing.T) {
	h := &Handle{pool: reqpool.NewPool(3, 64)}
	idx, ok := h.pool.Free.DequeueFree()
	if !ok {
		t.Fatal("expected a free slot")
	}
	req := h.pool.Get(idx)
	req.NextQueue = api.QueueTx

	h.routeRequest(req, api.QueueTx, h.pool.Tx)

	got, ok := h.pool.Tx.WaitDequeue()
	if !ok || got != idx {
		t.Fatalf("expected request %d forwarded to tx, got %d ok=%v", idx, got, ok)
	}
}

func TestRouteRequestFreesWhenNextQueueDoesNotMatch(t *testing.T) {
	h := &Handle{pool: reqpool.NewPool(3, 64)}
	idx, ok := h.pool.Free.DequeueFree()
	if !ok {
		t.Fatal("expected a free slot")
	}
	req := h.pool.Get(idx)
	req.NextQueue = api.QueueFree

	h.routeRequest(req, api.QueueTx, h.pool.Tx)

	if got := h.pool.Free.Len(); got != 3 {
		t.Fatalf("free len=%d, want 3: expected request returned to free", got)
	}
}

func TestDeinitIsIdempotent(t *testing.T) {
	h, _ := newTestHandle(t, 2)
	h.started = true
	if err := h.Deinit(); err != nil {
		t.Fatalf("first Deinit: %v", err)
	}
	if err := h.Deinit(); err != nil {
		t.Fatalf("second Deinit must be a no-op, got: %v", err)
	}
}
