package dataset

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `user,item,rating
u1,i1,4
u1,i2,2
u2,i1,5
`

func TestRead(t *testing.T) {
	ratings, err := Read(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, ratings, 3)
	assert.Equal(t, Rating{User: "u1", Item: "i1", Value: 4}, ratings[0])
	assert.Equal(t, Rating{User: "u2", Item: "i1", Value: 5}, ratings[2])
}

func TestRead_TabSeparatedWithTimestamp(t *testing.T) {
	in := "1\t10\t3\t881250949\n2\t10\t1\t891717742\n"
	ratings, err := Read(strings.NewReader(in), WithDelimiter('\t'))
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, Rating{User: "2", Item: "10", Value: 1}, ratings[1])
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"too few columns", "u1,i1\n", ErrMalformedRecord},
		{"bad rating after header", "user,item,rating\nu1,i1,x\n", ErrMalformedRecord},
		{"empty user", "u1,i1,1\n,i2,3\n", ErrMalformedRecord},
		{"only header", "user,item,rating\n", ErrEmpty},
		{"empty input", "", ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestOpen_Compressed(t *testing.T) {
	dir := t.TempDir()

	writers := map[string]func(io.Writer) io.WriteCloser{
		"ratings.csv": func(w io.Writer) io.WriteCloser { return nopCloser{w} },
		"ratings.csv.gz": func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		},
		"ratings.csv.zst": func(w io.Writer) io.WriteCloser {
			zw, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return zw
		},
		"ratings.csv.lz4": func(w io.Writer) io.WriteCloser {
			return lz4.NewWriter(w)
		},
	}

	for name, newWriter := range writers {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w := newWriter(&buf)
			_, err := io.WriteString(w, sample)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

			ratings, err := Open(path)
			require.NoError(t, err)
			assert.Len(t, ratings, 3)
		})
	}

	_, err := Open(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuild(t *testing.T) {
	ratings, err := Read(strings.NewReader(sample + "u1,i1,3\n"))
	require.NoError(t, err)

	g := node.NewGraph()
	l := Build(g, ratings)

	require.Len(t, l.Users, 2)
	require.Len(t, l.Contents, 2)

	u1, i1 := l.Users[0], l.Contents[0]
	label, ok := l.Label(u1)
	require.True(t, ok)
	assert.Equal(t, "u1", label)
	label, _ = l.Label(i1)
	assert.Equal(t, "i1", label)

	// The repeated (u1, i1) rating keeps the last value on both sides.
	v, ok := u1.Attribute(i1)
	require.True(t, ok)
	assert.Equal(t, 3.0, v.(*scoring.Numeric).Mean())
	v, ok = i1.Attribute(u1)
	require.True(t, ok)
	assert.Equal(t, 3.0, v.(*scoring.Numeric).Mean())

	assert.Equal(t, 2, u1.NumAttributes())
	assert.Equal(t, 1, l.Users[1].NumAttributes())
	assert.Equal(t, node.KindContent, i1.Kind())
	assert.Len(t, l.ByKind()[node.KindUser], 2)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
