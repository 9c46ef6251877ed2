package rxbuf

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(d *DoubleBuffer, p []byte) {
	buf := d.BeginWrite()
	n := copy(buf, p)
	d.EndWrite(n, n < len(p))
}

func TestSwapRoundRobin(t *testing.T) {
	var d DoubleBuffer
	assert.Equal(t, 0, d.Active())

	w1 := d.Swap()
	w2 := d.Swap()
	w3 := d.Swap()
	assert.Equal(t, 0, w1.Index)
	assert.Equal(t, 1, w2.Index)
	assert.Equal(t, 0, w3.Index)
	assert.NotEqual(t, w1.Index, w2.Index)
	assert.Equal(t, 1, d.Active())
}

func TestSwapReturnsWhatWasWritten(t *testing.T) {
	var d DoubleBuffer
	write(&d, []byte{1, 2, 3})

	w := d.Swap()
	assert.Equal(t, []byte{1, 2, 3}, w.Data)
	assert.False(t, w.Overrun)

	// the writer now fills the other buffer; the window is unaffected
	write(&d, []byte{9, 9})
	assert.Equal(t, []byte{1, 2, 3}, w.Data)

	w = d.Swap()
	assert.Equal(t, []byte{9, 9}, w.Data)
}

func TestSwapWithoutWritesIsEmpty(t *testing.T) {
	var d DoubleBuffer
	write(&d, []byte{1, 2, 3})
	d.Swap()
	d.Swap() // buffer 1, never written

	// buffer 0 comes back around and must not replay the old bytes
	w := d.Swap()
	assert.Equal(t, 0, w.Index)
	assert.Empty(t, w.Data)
}

func TestOverrunIsTruncatedAndFlagged(t *testing.T) {
	var d DoubleBuffer
	big := make([]byte, BufferSize+10)
	for i := range big {
		big[i] = byte(i)
	}
	write(&d, big)

	w := d.Swap()
	require.Len(t, w.Data, BufferSize)
	assert.True(t, w.Overrun)
	assert.Equal(t, big[:BufferSize], w.Data)

	// the flag belongs to that window only
	write(&d, []byte{1})
	w = d.Swap()
	assert.False(t, w.Overrun)
}

func TestLatestRunWins(t *testing.T) {
	var d DoubleBuffer
	write(&d, []byte{1, 2, 3, 4})
	write(&d, []byte{5, 6})

	w := d.Swap()
	assert.Equal(t, []byte{5, 6}, w.Data)
}

// TestNoTornReads runs a writer that stamps every byte of each run with the
// same value while the reader swaps continuously. Any window mixing two
// stamps would mean the reader saw a buffer the writer still owned.
func TestNoTornReads(t *testing.T) {
	var d DoubleBuffer
	var stop atomic.Bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		var stamp byte
		for !stop.Load() {
			stamp++
			buf := d.BeginWrite()
			for i := range buf {
				buf[i] = stamp
			}
			d.EndWrite(len(buf), false)
			// interrupts are not back to back
			runtime.Gosched()
		}
	}()

	seen := 0
	for i := 0; i < 5000; i++ {
		w := d.Swap()
		if len(w.Data) == 0 {
			continue
		}
		seen++
		first := w.Data[0]
		for j, b := range w.Data {
			if b != first {
				stop.Store(true)
				wg.Wait()
				t.Fatalf("torn window %d at byte %d: %d != %d", w.Index, j, b, first)
			}
		}
	}
	stop.Store(true)
	wg.Wait()
	t.Logf("checked %d non-empty windows", seen)
}
