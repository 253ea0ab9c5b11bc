package parley_test

import (
	"testing"

	"github.com/fwojciec/parley"
	"github.com/stretchr/testify/assert"
)

func TestHub_PublishDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()
	hub := parley.NewHub()
	a, unsubA := hub.Subscribe()
	defer unsubA()
	b, unsubB := hub.Subscribe()
	defer unsubB()

	hub.Publish(parley.Change{Key: parley.SessionsKey})

	assert.Equal(t, parley.Change{Key: parley.SessionsKey}, <-a)
	assert.Equal(t, parley.Change{Key: parley.SessionsKey}, <-b)
}

func TestHub_PublishCoalesces(t *testing.T) {
	t.Parallel()
	hub := parley.NewHub()
	ch, unsub := hub.Subscribe()
	defer unsub()

	hub.Publish(parley.Change{Key: parley.SessionsKey})
	hub.Publish(parley.Change{Key: parley.SessionsKey, External: true})

	<-ch
	select {
	case c := <-ch:
		t.Fatalf("unexpected second change %+v", c)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	t.Parallel()
	hub := parley.NewHub()
	ch, unsub := hub.Subscribe()

	unsub()
	unsub()
	hub.Publish(parley.Change{Key: parley.SessionsKey})

	_, ok := <-ch
	assert.False(t, ok)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()
	hub := parley.NewHub()
	ch, unsub := hub.Subscribe()

	hub.Close()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := hub.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
