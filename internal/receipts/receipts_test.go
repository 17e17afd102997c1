package receipts

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestPrepare(t *testing.T) {
	u, err := Prepare(bytes.NewReader(pngHeader), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.ContentType)
	assert.True(t, strings.HasSuffix(u.Name, ".png"))
	assert.True(t, ValidName(u.Name))

	jpeg := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 16)...)
	u, err = Prepare(bytes.NewReader(jpeg), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", u.ContentType)
}

func TestPrepare_Rejects(t *testing.T) {
	_, err := Prepare(strings.NewReader("%PDF-1.4 not an image"), 1024)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = Prepare(bytes.NewReader(nil), 1024)
	assert.ErrorIs(t, err, ErrEmpty)

	big := append(append([]byte{}, pngHeader...), make([]byte, 100)...)
	_, err = Prepare(bytes.NewReader(big), 50)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("0b5a1d3c-9a4e-4a8f-8a1b-2c3d4e5f6a7b.webp"))
	assert.False(t, ValidName("../etc/passwd"))
	assert.False(t, ValidName("0b5a1d3c-9a4e-4a8f-8a1b-2c3d4e5f6a7b.exe"))
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/")
	require.NoError(t, err)

	u, err := Prepare(bytes.NewReader(pngHeader), 1024)
	require.NoError(t, err)

	url, err := s.Save(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/receipts/"+u.Name, url)

	path, err := s.Path(u.Name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	_, err = s.Path("../../secret")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bkt/receipts/a.png", objectURL("bkt", "receipts/a.png"))
}
