package sticky

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	seq      int
	posted   []string // canal:id
	deleted  []string
	postErr  error
	delErr   error
	postGate chan struct{}
	posts    int32
}

func (f *fakeNotifier) PostNotice(_ context.Context, ch string) (string, error) {
	atomic.AddInt32(&f.posts, 1)
	if f.postGate != nil {
		<-f.postGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", f.postErr
	}
	f.seq++
	id := fmt.Sprintf("m%d", f.seq)
	f.posted = append(f.posted, ch+":"+id)
	return id, nil
}

func (f *fakeNotifier) DeleteNotice(_ context.Context, ch, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ch+":"+id)
	return f.delErr
}

func (f *fakeNotifier) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posted...), append([]string(nil), f.deleted...)
}

func TestRefresh_DeletesPreviousAndTracksNew(t *testing.T) {
	n := &fakeNotifier{}
	st := NewMemoryStore()
	m := NewManager(n, []string{"c1"}, WithStore(st))
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx, "c1"))
	id, ok := st.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "m1", id)

	require.NoError(t, m.Refresh(ctx, "c1"))
	posted, deleted := n.snapshot()
	assert.Equal(t, []string{"c1:m1", "c1:m2"}, posted)
	assert.Equal(t, []string{"c1:m1"}, deleted)
	id, _ = st.Get("c1")
	assert.Equal(t, "m2", id)
}

func TestRefresh_DeleteFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{delErr: errors.New("unknown message")}
	st := NewMemoryStore()
	st.Put("c1", "gone")
	m := NewManager(n, []string{"c1"}, WithStore(st))

	require.NoError(t, m.Refresh(context.Background(), "c1"))
	id, _ := st.Get("c1")
	assert.Equal(t, "m1", id)
}

func TestRefresh_PostFailureKeepsOldID(t *testing.T) {
	n := &fakeNotifier{postErr: errors.New("missing access")}
	st := NewMemoryStore()
	st.Put("c1", "old")
	m := NewManager(n, []string{"c1"}, WithStore(st))

	require.Error(t, m.Refresh(context.Background(), "c1"))
	id, _ := st.Get("c1")
	assert.Equal(t, "old", id)
}

func TestRefresh_ConcurrentCallsAreCoalesced(t *testing.T) {
	gate := make(chan struct{})
	n := &fakeNotifier{postGate: gate}
	m := NewManager(n, []string{"c1"})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Refresh(context.Background(), "c1")
		}()
	}
	// dejamos que todas entren al singleflight antes de liberar el post
	require.Eventually(t, func() bool { return atomic.LoadInt32(&n.posts) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	posted, _ := n.snapshot()
	assert.LessOrEqual(t, len(posted), 2)
	assert.Equal(t, int32(len(posted)), atomic.LoadInt32(&n.posts))
}

func TestTouch_Debounces(t *testing.T) {
	n := &fakeNotifier{}
	m := NewManager(n, []string{"c1"}, WithDebounce(30*time.Millisecond))

	for i := 0; i < 10; i++ {
		m.Touch("c1")
	}
	require.Eventually(t, func() bool {
		p, _ := n.snapshot()
		return len(p) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	posted, _ := n.snapshot()
	assert.Len(t, posted, 1)
}

func TestRun_PostsOnStartAndOnTick(t *testing.T) {
	n := &fakeNotifier{}
	m := NewManager(n, []string{"c1", "c2"}, WithInterval(40*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		p, _ := n.snapshot()
		return len(p) >= 4
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	_, deleted := n.snapshot()
	assert.NotEmpty(t, deleted)
}

func TestRun_NoChannelsReturnsImmediately(t *testing.T) {
	m := NewManager(&fakeNotifier{}, nil)
	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return with no channels")
	}
}
