package common

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleLogCount(t *testing.T) {
	log := NewCycleLog()
	log.Append("The classifier's verdict for https://a is (POSITIVE)")
	log.Append("The classifier's verdict for https://b is (NEGATIVE)")
	log.Append("Site https://a successfully written to database")

	assert.Equal(t, 2, log.Count("classifier's verdict"))
	assert.Equal(t, 1, log.Count("(POSITIVE)"))
	assert.Equal(t, 1, log.Count("successfully written to database"))
	assert.Equal(t, 0, log.Count("V2 verification"))
	assert.Equal(t, 3, log.Len())
}

func TestCycleLogReset(t *testing.T) {
	log := NewCycleLog()
	log.Append("line")
	log.Reset()
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Lines())
}

func TestCycleLogConcurrentAppend(t *testing.T) {
	log := NewCycleLog()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				log.Append(fmt.Sprintf("worker %d line %d", n, j))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1000, log.Len())
}
