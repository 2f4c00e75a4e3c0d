package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerConcurrentTicks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := NewTracker(&buf, "extracting", 50)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Tick()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), tr.Current())
	tr.Finish()
	assert.Contains(t, buf.String(), "extracting")
}
