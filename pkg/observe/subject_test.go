package observe

import (
	"sync"
	"testing"
)

func TestSubjectGetSet(t *testing.T) {
	s := NewSubject(1)
	if got := s.Get(); got != 1 {
		t.Errorf("Get() = %d, want 1", got)
	}
	s.Set(2)
	if got := s.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}
}

func TestSubjectSubscribe(t *testing.T) {
	s := NewSubject("")

	var got []string
	unsubscribe := s.Subscribe(func(v string) { got = append(got, v) })

	s.Set("a")
	s.Set("b")
	unsubscribe()
	s.Set("c")
	unsubscribe()

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("notifications = %v, want [a b]", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSubjectOrder(t *testing.T) {
	s := NewSubject(0)
	var order []int
	s.Subscribe(func(int) { order = append(order, 1) })
	s.Subscribe(func(int) { order = append(order, 2) })
	s.Subscribe(func(int) { order = append(order, 3) })

	s.Set(1)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestSubjectUnsubscribeDuringNotify(t *testing.T) {
	s := NewSubject(0)

	calls := 0
	var unsubscribe func()
	unsubscribe = s.Subscribe(func(int) {
		calls++
		unsubscribe()
	})
	s.Subscribe(func(v int) {
		if got := s.Get(); got != v {
			t.Errorf("Get() inside subscriber = %d, want %d", got, v)
		}
	})

	s.Set(1)
	s.Set(2)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSubjectConcurrent(t *testing.T) {
	s := NewSubject(0)
	var mu sync.Mutex
	seen := 0
	s.Subscribe(func(int) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Set(v)
			_ = s.Get()
		}(i)
	}
	wg.Wait()

	if seen != 20 {
		t.Errorf("seen = %d, want 20", seen)
	}
}
