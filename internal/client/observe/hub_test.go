package observe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHub_PublishInSubscriptionOrder(t *testing.T) {
	var h Hub[int]
	var got []string

	h.Subscribe(func(v int) { got = append(got, "a") })
	h.Subscribe(func(v int) { got = append(got, "b") })

	h.Publish(1)
	require.Equal(t, []string{"a", "b"}, got)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	var h Hub[string]
	calls := 0

	unsub := h.Subscribe(func(string) { calls++ })
	keep := h.Subscribe(func(string) {})
	require.Equal(t, 2, h.Len())

	unsub()
	unsub()
	require.Equal(t, 1, h.Len())

	h.Publish("x")
	require.Zero(t, calls)
	keep()
	require.Zero(t, h.Len())
}

func TestHub_ListenerMayUnsubscribeDuringPublish(t *testing.T) {
	var h Hub[int]
	var unsub func()
	calls := 0
	unsub = h.Subscribe(func(int) {
		calls++
		unsub()
	})

	h.Publish(1)
	h.Publish(2)
	require.Equal(t, 1, calls)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	var h Hub[int]
	require.NotPanics(t, func() { h.Publish(1) })
}
