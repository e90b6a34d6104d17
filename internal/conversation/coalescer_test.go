package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu  sync.Mutex
	got []Directive
}

func (r *flushRecorder) flush(d Directive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, d)
}

func (r *flushRecorder) snapshot() []Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Directive(nil), r.got...)
}

func TestCoalescer_MergesBurstPerViewer(t *testing.T) {
	rec := &flushRecorder{}
	c := NewCoalescer(30*time.Millisecond, rec.flush)
	defer c.Close()

	k1 := Key{ListingID: "L1", CounterpartID: "A"}
	k2 := Key{ListingID: "L2", CounterpartID: "A"}
	c.Submit(Directive{ViewerID: "B", Conversations: true, Threads: []Key{k1}})
	c.Submit(Directive{ViewerID: "B", Badge: true, Threads: []Key{k2}})
	c.Submit(Directive{ViewerID: "C", Conversations: true})
	assert.Equal(t, 2, c.Pending())

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	byViewer := map[string]Directive{}
	for _, d := range rec.snapshot() {
		byViewer[d.ViewerID] = d
	}
	b := byViewer["B"]
	assert.True(t, b.Conversations)
	assert.True(t, b.Badge)
	assert.Equal(t, []Key{k1, k2}, b.Threads)
	assert.True(t, byViewer["C"].Conversations)
	assert.Equal(t, 0, c.Pending())
}

func TestCoalescer_ZeroWindowFlushesImmediately(t *testing.T) {
	rec := &flushRecorder{}
	c := NewCoalescer(0, rec.flush)
	c.Submit(Directive{ViewerID: "B", Conversations: true})
	assert.Len(t, rec.snapshot(), 1)
}

func TestCoalescer_CloseDropsPending(t *testing.T) {
	rec := &flushRecorder{}
	c := NewCoalescer(20*time.Millisecond, rec.flush)
	c.Submit(Directive{ViewerID: "B", Conversations: true})
	c.Close()
	c.Submit(Directive{ViewerID: "B", Conversations: true})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 0, c.Pending())
}
