package fetcher

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		contentType string
		expected    string
	}{
		{"meta charset", `<html><head><meta charset="utf-8"></head></html>`, "", "utf-8"},
		{"content type wins", `<html></html>`, "text/html; charset=ISO-8859-1", "windows-1252"},
		{"meta latin1", `<html><head><meta charset="iso-8859-1"></head></html>`, "", "windows-1252"},
		{"valid utf-8 without declaration", "<p>Amélie</p>", "", "utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectEncoding([]byte(tt.content), tt.contentType))
		})
	}
}

func TestConvertToUTF8(t *testing.T) {
	t.Run("latin1 body", func(t *testing.T) {
		latin1 := []byte("<p>Am\xe9lie</p>")
		out, err := ConvertToUTF8(latin1, "text/html; charset=iso-8859-1")
		require.NoError(t, err)
		assert.Equal(t, "<p>Amélie</p>", string(out))
	})

	t.Run("utf-8 untouched", func(t *testing.T) {
		in := []byte(`<meta charset="utf-8"><p>Amélie</p>`)
		out, err := ConvertToUTF8(in, "")
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestDecodeBody(t *testing.T) {
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := encoder.EncodeAll([]byte(`<meta charset="utf-8"><a href="/x">x</a>`), nil)
	require.NoError(t, encoder.Close())

	t.Run("zstd with header", func(t *testing.T) {
		out, err := DecodeBody(compressed, "zstd", "text/html")
		require.NoError(t, err)
		assert.Contains(t, string(out), `href="/x"`)
	})

	t.Run("zstd by magic bytes", func(t *testing.T) {
		out, err := DecodeBody(compressed, "", "")
		require.NoError(t, err)
		assert.Contains(t, string(out), `href="/x"`)
	})

	t.Run("already decoded by transport", func(t *testing.T) {
		out, err := DecodeBody([]byte("<p>plain</p>"), "zstd", "text/html")
		require.NoError(t, err)
		assert.Equal(t, "<p>plain</p>", string(out))
	})

	t.Run("binary body untouched", func(t *testing.T) {
		in := []byte{0x1a, 0x45, 0xdf, 0xa3, 0xff}
		out, err := DecodeBody(in, "", "video/x-matroska")
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestIsZstd(t *testing.T) {
	magic := []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}
	assert.True(t, IsZstd(magic, ""))
	assert.True(t, IsZstd(magic, "zstd"))
	assert.False(t, IsZstd(magic, "gzip"))
	assert.False(t, IsZstd([]byte("<html>"), "zstd"))
}
