package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/user/debatecoach/internal/types"
)

func TestPublishDeliversToSessionSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub()
	defer h.Close()

	a, cancelA := h.Subscribe("a")
	defer cancelA()
	b, cancelB := h.Subscribe("b")
	defer cancelB()
	all, cancelAll := h.Subscribe("")
	defer cancelAll()

	h.Publish(Update{SessionID: "a", Kind: KindTurn, Reply: "hi"})

	select {
	case u := <-a:
		require.Equal(t, "hi", u.Reply)
		require.False(t, u.At.IsZero())
	default:
		t.Fatal("expected update for session a")
	}
	select {
	case <-b:
		t.Fatal("session b should not receive session a's update")
	default:
	}
	require.Len(t, all, 1)
}

func TestPublishNeverBlocks(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub()
	defer h.Close()

	ch, cancel := h.Subscribe("s")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < SubscriberBuffer+25; i++ {
			h.Publish(Update{SessionID: "s"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	require.Len(t, ch, SubscriberBuffer)
	require.Equal(t, 25, h.Dropped("s"))
}

func TestPublishWithoutSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub()
	defer h.Close()
	h.Publish(Update{SessionID: "nobody"})
	require.Equal(t, 0, h.Subscribers())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub()
	defer h.Close()

	ch, cancel := h.Subscribe("s")
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, h.Subscribers())

	h.Publish(Update{SessionID: "s"})
}

func TestCloseClosesSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub()
	ch, cancel := h.Subscribe("s")
	h.Close()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	late, _ := h.Subscribe("s")
	_, ok = <-late
	require.False(t, ok)
	h.Publish(Update{SessionID: "s"})
}

type recordingMirror struct {
	mu  sync.Mutex
	got []Update
	err error
}

func (m *recordingMirror) Mirror(_ context.Context, u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, u)
	return m.err
}

func TestMirror(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := &recordingMirror{err: errors.New("ignored")}
	h := NewHub(WithMirror(m))

	h.Publish(Update{SessionID: "s", Kind: KindDistill})
	h.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.got, 1)
	require.Equal(t, KindDistill, m.got[0].Kind)
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub()
	defer h.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancel := h.Subscribe(types.SessionID("s"))
			cancel()
		}()
		go func() {
			defer wg.Done()
			h.Publish(Update{SessionID: "s"})
		}()
	}
	wg.Wait()
}
