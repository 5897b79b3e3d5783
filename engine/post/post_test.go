package post

import (
	"sync"
	"testing"
)

func TestPost(t *testing.T) {
	q := NewQueue()
	var a int
	q.Post(func() {
		a = 1
	})
	q.Tick()
	if a != 1 {
		t.Errorf("t should be 1")
	}
}

func TestPostDuringTick(t *testing.T) {
	q := NewQueue()
	var order []int
	q.Post(func() {
		order = append(order, 1)
		q.Post(func() {
			order = append(order, 3)
		})
	})
	q.Post(func() {
		panic("ignored")
	})
	q.Post(func() {
		order = append(order, 2)
	})
	q.Tick()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected order: %v", order)
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be drained")
	}
}

func TestPostFromGoroutines(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	count := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Post(func() { count++ })
		}()
	}
	wg.Wait()
	q.Tick()
	if count != 50 {
		t.Fatalf("count = %d", count)
	}
}
