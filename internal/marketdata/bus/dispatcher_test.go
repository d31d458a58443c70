package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barfeed/internal/model"
)

func tick(ts string) model.Tick {
	return model.Tick{Period: model.Period1m, Bar: model.Bar{Timestamp: ts, Close: 1}}
}

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := New()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		d.Subscribe(name, func(ctx context.Context, tk model.Tick) error {
			order = append(order, name+":"+tk.Bar.Timestamp)
			return nil
		})
	}

	faults := d.Publish(context.Background(), tick("1"))
	assert.Zero(t, faults)
	assert.Equal(t, []string{"a:1", "b:1", "c:1"}, order)
}

func TestDispatcher_IsolatesFaults(t *testing.T) {
	d := New()
	var faulted []string
	d.OnFault = func(name string, err error) { faulted = append(faulted, name) }

	reached := 0
	d.Subscribe("erroring", func(context.Context, model.Tick) error { return errors.New("boom") })
	d.Subscribe("panicking", func(context.Context, model.Tick) error { panic("kaboom") })
	d.Subscribe("healthy", func(context.Context, model.Tick) error {
		reached++
		return nil
	})

	faults := d.Publish(context.Background(), tick("1"))
	assert.Equal(t, 2, faults)
	assert.Equal(t, 1, reached, "later subscriber must still run")
	assert.Equal(t, []string{"erroring", "panicking"}, faulted)
}

func TestDispatcher_NoReplayOnSubscribe(t *testing.T) {
	d := New()
	d.Publish(context.Background(), tick("1"))

	var seen []string
	d.Subscribe("late", func(_ context.Context, tk model.Tick) error {
		seen = append(seen, tk.Bar.Timestamp)
		return nil
	})
	d.Publish(context.Background(), tick("2"))

	assert.Equal(t, []string{"2"}, seen)
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := New()
	calls := 0
	sub := d.Subscribe("x", func(context.Context, model.Tick) error {
		calls++
		return nil
	})
	d.Subscribe("y", func(context.Context, model.Tick) error { return nil })
	require.Equal(t, 2, d.Len())

	d.Publish(context.Background(), tick("1"))
	sub.Unsubscribe()
	sub.Unsubscribe()
	d.Publish(context.Background(), tick("2"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, "x", sub.Name())
}

func TestDispatcher_SubscribeDuringPublish(t *testing.T) {
	d := New()
	lateCalls := 0
	d.Subscribe("spawner", func(context.Context, model.Tick) error {
		d.Subscribe("spawned", func(context.Context, model.Tick) error {
			lateCalls++
			return nil
		})
		return nil
	})

	d.Publish(context.Background(), tick("1"))
	assert.Zero(t, lateCalls, "subscriber added mid-publish sees only later ticks")

	d.Publish(context.Background(), tick("2"))
	assert.Equal(t, 1, lateCalls)
}
