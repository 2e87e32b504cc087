package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "21.jpg")

	assert.False(t, FileExists(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.True(t, FileExists(path))
	assert.True(t, FileExists(dir))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "catalog.json", entries[0].Name())
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "21.jpg")

	require.Error(t, WriteFileAtomic(path, []byte("x")))
	assert.False(t, FileExists(path))
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "images")

	require.NoError(t, EnsureDir(path))
	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestImageService_ResizeImage(t *testing.T) {
	svc := NewImageService()
	data := encodePNG(t, testImage(300, 200))

	out, err := svc.ResizeImage(context.Background(), data, 150, 150)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 150, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestImageService_Normalize(t *testing.T) {
	svc := NewImageService()
	ctx := context.Background()

	t.Run("jpeg passes through", func(t *testing.T) {
		data := encodeJPEG(t, testImage(40, 40))
		out, err := svc.Normalize(ctx, data, 0)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("png becomes jpeg", func(t *testing.T) {
		out, err := svc.Normalize(ctx, encodePNG(t, testImage(40, 40)), 0)
		require.NoError(t, err)
		assert.True(t, IsJPEG(out))
	})

	t.Run("shrinks to max size", func(t *testing.T) {
		out, err := svc.Normalize(ctx, encodeJPEG(t, testImage(100, 50)), 20)
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Width)
		assert.Equal(t, 10, cfg.Height)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Normalize(ctx, []byte("not an image"), 0)
		assert.Error(t, err)
	})
}
