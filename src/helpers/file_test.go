package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop().Sugar()

	path := filepath.Join(dir, "a.json")
	assert.False(t, FileExists(path, logger))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	assert.True(t, FileExists(path, logger))
	assert.False(t, FileExists(dir, logger))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestWithMappedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte("mapped"), 0644))

	var got string
	require.NoError(t, WithMappedFile(path, func(data []byte) error {
		got = string(data)
		return nil
	}))
	assert.Equal(t, "mapped", got)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.ErrorIs(t, WithMappedFile(empty, func([]byte) error { return nil }), ErrEmptyFile)

	assert.ErrorIs(t, WithMappedFile(filepath.Join(dir, "missing"), func([]byte) error { return nil }), os.ErrNotExist)
}

func TestExtJSON(t *testing.T) {
	data, err := EncodeExtJSON(bson.D{{Key: "b", Value: int64(2)}, {Key: "a", Value: "x"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"b": 2`)

	var out bson.M
	require.NoError(t, DecodeExtJSON(data, &out))
	assert.Equal(t, "x", out["a"])

	assert.Error(t, DecodeExtJSON([]byte("not json"), &out))
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "abc", StripQuotes(` "abc" `))
	assert.Equal(t, "abc", StripQuotes(`'abc'`))
	assert.Equal(t, `"abc'`, StripQuotes(`"abc'`))
	assert.Equal(t, "", StripQuotes(""))
	assert.NotEmpty(t, GenerateUUID())
}
