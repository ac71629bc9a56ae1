package assigner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/splithub/splithub/internal/assigner"
)

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := assigner.NewBus()

	var first, second []string
	unsubscribe := bus.Subscribe(assigner.EditsTriggeredEvent, func(e assigner.EditsTriggered) {
		first = append(first, e.TestID)
	})
	bus.Subscribe(assigner.EditsTriggeredEvent, func(e assigner.EditsTriggered) {
		second = append(second, e.TestID)
	})

	bus.Broadcast(assigner.EditsTriggeredEvent, assigner.EditsTriggered{TestID: "one"})
	unsubscribe()
	bus.Broadcast(assigner.EditsTriggeredEvent, assigner.EditsTriggered{TestID: "two"})
	bus.Broadcast("somethingElse", assigner.EditsTriggered{TestID: "three"})

	assert.Equal(t, []string{"one"}, first)
	assert.Equal(t, []string{"one", "two"}, second)
}

func TestBus_BroadcastWithoutListeners(t *testing.T) {
	bus := assigner.NewBus()
	assert.NotPanics(t, func() {
		bus.Broadcast(assigner.EditsTriggeredEvent, assigner.EditsTriggered{TestID: "lonely"})
	})
}
