package fetcher

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// DecodeBody undoes a zstd transfer encoding the transport left in place and
// converts textual bodies to UTF-8
func DecodeBody(body []byte, contentEncoding, contentType string) ([]byte, error) {
	if IsZstd(body, contentEncoding) {
		decoded, err := decodeZstd(body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	if !isTextual(contentType) {
		return body, nil
	}
	return ConvertToUTF8(body, contentType)
}

// IsZstd reports whether body is still zstd-compressed. The magic bytes are
// required even when the header says zstd, since the transport may have
// already decoded it.
func IsZstd(body []byte, contentEncoding string) bool {
	if !bytes.HasPrefix(body, zstdMagic) {
		return false
	}
	return contentEncoding == "" || strings.Contains(strings.ToLower(contentEncoding), "zstd")
}

func decodeZstd(body []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	out, err := decoder.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd: %w", err)
	}
	return out, nil
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// DetectEncoding detects the character encoding of HTML content
func DetectEncoding(content []byte, contentType string) string {
	_, name, _ := charset.DetermineEncoding(content, contentType)
	if name == "" {
		return "utf-8"
	}
	return strings.ToLower(name)
}

// ConvertToUTF8 converts content from its detected encoding to UTF-8
func ConvertToUTF8(content []byte, contentType string) ([]byte, error) {
	enc := DetectEncoding(content, contentType)
	if enc == "utf-8" || enc == "utf8" {
		return content, nil
	}

	e, err := htmlindex.Get(enc)
	if err != nil {
		// Unknown encoding, return as-is
		return content, nil
	}

	reader := transform.NewReader(bytes.NewReader(content), e.NewDecoder())
	return io.ReadAll(reader)
}
