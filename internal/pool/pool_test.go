package pool

import (
	"bytes"
	"testing"
)

type testObj struct {
	value int
}

func (t *testObj) Reset() {
	t.value = 0
}

func TestPool_GetPut(t *testing.T) {
	p := New(func() *testObj {
		return &testObj{value: 42}
	})

	obj := p.Get()
	if obj == nil {
		t.Fatalf("expected non-nil object from pool")
	}
	if obj.value != 42 {
		t.Fatalf("unexpected initial value: %d", obj.value)
	}

	// Меняем состояние и возвращаем объект в пул.
	obj.value = 100
	p.Put(obj)

	// Забираем объект снова: либо тот же после Reset, либо новый от newFn.
	obj2 := p.Get()
	if obj2 == nil {
		t.Fatalf("expected non-nil object from pool on second Get")
	}
	if obj2.value != 0 && obj2.value != 42 {
		t.Fatalf("expected reset or fresh object, got %d", obj2.value)
	}
}

func TestPool_NilConstructor(t *testing.T) {
	p := New[*testObj](nil)

	if obj := p.Get(); obj != nil {
		t.Fatalf("expected nil from empty pool without constructor, got %+v", obj)
	}
}

func TestPool_KeepRejects(t *testing.T) {
	resets := 0
	p := New(func() *countingObj { return &countingObj{resets: &resets} },
		WithKeep(func(o *countingObj) bool { return !o.big }))

	p.Put(&countingObj{resets: &resets, big: true})
	if resets != 0 {
		t.Fatalf("rejected object must not be reset, resets=%d", resets)
	}

	p.Put(&countingObj{resets: &resets})
	if resets != 1 {
		t.Fatalf("kept object must be reset once, resets=%d", resets)
	}
}

type countingObj struct {
	resets *int
	big    bool
}

func (c *countingObj) Reset() { *c.resets++ }

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(16)

	buf := p.Get()
	buf.WriteString("payload")
	p.Put(buf)

	again := p.Get()
	if again.Len() != 0 {
		t.Fatalf("expected empty buffer, got %q", again.String())
	}

	large := bytes.NewBuffer(make([]byte, 0, 1024))
	p.Put(large) // не должен попасть в пул и не должен паниковать
}
