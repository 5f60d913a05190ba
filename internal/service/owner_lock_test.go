package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerLocksSerializePerOwner(t *testing.T) {
	locks := newOwnerLocks()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Lock("owner-1")
			counter++
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestOwnerLocksIndependentOwners(t *testing.T) {
	locks := newOwnerLocks()
	releaseA := locks.Lock("a")
	releaseB := locks.Lock("b")
	assert.Equal(t, 2, locks.size())
	releaseA()
	releaseB()
	assert.Equal(t, 0, locks.size())
}
