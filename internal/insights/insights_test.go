package insights

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCycles(t *testing.T) {
	assert.Equal(t, 5, Count())
	assert.Equal(t, 1, Next(0))
	assert.Equal(t, 0, Next(4))
	assert.Equal(t, Insight(0), Insight(5))
	assert.Equal(t, Insight(4), Insight(-1))
}

func TestMockDashboard(t *testing.T) {
	d := MockDashboard()

	assert.Equal(t, "1245.5", d.Revenue.Today.String())
	assert.Equal(t, "42", d.Orders.Today.String())
	require.Len(t, d.Popular, 4)
	assert.Equal(t, "Grilled Salmon", d.Popular[0].Name)
}

func TestType_RevealsWholeMessage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last string
	steps := 0
	for s := range Type(ctx, 2, time.Millisecond) {
		steps++
		require.Len(t, []rune(s), steps)
		last = s
	}

	assert.Equal(t, Insight(2), last)
	assert.Equal(t, len([]rune(Insight(2))), steps)
}

func TestType_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := Type(ctx, 0, time.Millisecond)
	<-ch
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("channel was not closed after cancel")
	}
}
