package pkg

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestCombinedWriter(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	cw := NewCombinedWriter(&buf1, &buf2)

	n, err := cw.Write([]byte("550m to go"))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, "550m to go", buf1.String())
	assert.Equal(t, "550m to go", buf2.String())
}

func TestCombinedWriter_OneWriterFails(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCombinedWriter(failingWriter{}, &buf)

	n, err := cw.Write([]byte("ugh"))
	require.Error(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "ugh", buf.String())
}
