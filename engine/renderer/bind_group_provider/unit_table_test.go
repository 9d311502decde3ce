package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

// countingFactory records how many bind groups were created and with which buffers.
// It returns nil bind groups so nothing touches the GPU.
type countingFactory struct {
	calls [][]*wgpu.Buffer
}

func (f *countingFactory) create(buffers []*wgpu.Buffer) (*wgpu.BindGroup, error) {
	f.calls = append(f.calls, append([]*wgpu.Buffer(nil), buffers...))
	return nil, nil
}

func TestUnitTableCachesUntilRebind(t *testing.T) {
	table := NewUnitTable()
	a, b, c := &wgpu.Buffer{}, &wgpu.Buffer{}, &wgpu.Buffer{}
	table.Bind(1, a)
	table.Bind(2, b)

	f := &countingFactory{}
	for i := 0; i < 3; i++ {
		if _, err := table.BindGroup("prey::alive", 1, 2, f.create); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.calls) != 1 {
		t.Fatalf("created %d bind groups, want 1", len(f.calls))
	}
	if f.calls[0][0] != a || f.calls[0][1] != b {
		t.Error("bind group built over the wrong buffers")
	}

	// Growth rebinds unit 2 to a new buffer.
	table.Bind(2, c)
	if _, err := table.BindGroup("prey::alive", 1, 2, f.create); err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 2 || f.calls[1][1] != c {
		t.Errorf("stale bind group reused after rebind: %d calls", len(f.calls))
	}
}

func TestUnitTableKeysAreIndependent(t *testing.T) {
	table := NewUnitTable()
	table.Bind(1, &wgpu.Buffer{})
	table.Bind(2, &wgpu.Buffer{})

	f := &countingFactory{}
	table.BindGroup("a::x", 1, 1, f.create)
	table.BindGroup("b::x", 2, 1, f.create)
	table.BindGroup("a::x", 1, 1, f.create)
	if len(f.calls) != 2 {
		t.Errorf("created %d bind groups, want 2", len(f.calls))
	}
}

func TestUnitTableUnbound(t *testing.T) {
	table := NewUnitTable()
	buf := &wgpu.Buffer{}
	table.Bind(3, buf)
	table.Bind(4, buf)

	table.Unbind(buf)
	if table.Buffer(3) != nil || table.Buffer(4) != nil {
		t.Fatal("Unbind left a unit pointing at the buffer")
	}
	f := &countingFactory{}
	if _, err := table.BindGroup("k", 3, 1, f.create); err == nil {
		t.Error("expected an error for an unbound unit")
	}
}

func TestUnitTableFactoryError(t *testing.T) {
	table := NewUnitTable()
	table.Bind(1, &wgpu.Buffer{})
	boom := errors.New("boom")
	_, err := table.BindGroup("k", 1, 1, func([]*wgpu.Buffer) (*wgpu.BindGroup, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}

	// The failure is not cached.
	f := &countingFactory{}
	table.BindGroup("k", 1, 1, f.create)
	if len(f.calls) != 1 {
		t.Error("factory not retried after an error")
	}
}

func TestUnitTableRelease(t *testing.T) {
	table := NewUnitTable()
	table.Bind(1, &wgpu.Buffer{})
	f := &countingFactory{}
	table.BindGroup("k", 1, 1, f.create)
	table.Release()
	if table.Buffer(1) != nil {
		t.Error("Release kept bindings")
	}
}
