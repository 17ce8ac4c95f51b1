package eventloop

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFileEventMergesMasks(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	// The backend registers real fds with the kernel, so use an open pipe.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	fd := int(r.Fd())

	var readFired, writeFired bool
	err = l.CreateFileEvent(fd, Readable, func(fd int, _ any) { readFired = true }, nil, nil)
	require.NoError(t, err)
	err = l.CreateFileEvent(fd, Writable, nil, func(fd int, _ any) { writeFired = true }, nil)
	require.NoError(t, err)

	fe := l.files[fd]
	require.NotNil(t, fe)
	assert.Equal(t, Readable|Writable, fe.mask)
	assert.NotNil(t, fe.readCB)
	assert.NotNil(t, fe.writeCB)
	_ = readFired
	_ = writeFired
}

func TestDeleteFileEventFreesSlotWhenEmpty(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	fd := int(r.Fd())

	require.NoError(t, l.CreateFileEvent(fd, Readable, func(int, any) {}, nil, nil))
	require.NoError(t, l.DeleteFileEvent(fd, Readable))
	_, ok := l.files[fd]
	assert.False(t, ok)
}

func TestTimeEventRunsAndReschedules(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	calls := 0
	id := l.CreateTimeEvent(0, func(id int64, _ any) int {
		calls++
		if calls >= 2 {
			return NoMore
		}
		return 0
	}, nil, nil)
	require.NotZero(t, id)

	for i := 0; i < 5 && calls < 2; i++ {
		l.processTimeEvents()
	}
	assert.Equal(t, 2, calls)
}

func TestDeleteTimeEventMarksSentinel(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	finalized := false
	id := l.CreateTimeEvent(100000, func(int64, any) int { return 0 }, func(int64, any) { finalized = true }, nil)
	l.DeleteTimeEvent(id)
	l.processTimeEvents()
	assert.True(t, finalized)
}
