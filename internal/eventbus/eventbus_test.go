package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }
type pong struct{}

func TestBus(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var a, b []int
	unsubA := Subscribe(func(_ context.Context, e ping) { a = append(a, e.n) })
	unsubB := Subscribe(func(_ context.Context, e ping) { b = append(b, e.n) })
	defer unsubB()

	Publish(context.Background(), ping{1})
	Publish(context.Background(), pong{})
	unsubA()
	Publish(context.Background(), ping{2})

	require.Equal(t, []int{1}, a)
	require.Equal(t, []int{1, 2}, b, "unsubscribing one handler keeps the others")
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	called := false
	unsub := Subscribe(func(context.Context, ping) { called = true })
	unsub()
	Publish(context.Background(), ping{})
	require.False(t, called)
}
