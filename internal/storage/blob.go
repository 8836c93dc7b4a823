package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
)

type blobKind int

const (
	kindText blobKind = iota + 1
	kindBytes
	kindJSON
	kindImage
)

// JPEGQuality is used when an Image blob is encoded
const JPEGQuality = 90

// Blob is a value to persist. The caller picks the encoding explicitly
// through one of the constructors; nothing is inferred from the value's type.
type Blob struct {
	kind  blobKind
	text  string
	data  []byte
	value interface{}
	img   image.Image
}

// Text stores s as UTF-8
func Text(s string) Blob {
	return Blob{kind: kindText, text: s}
}

// Bytes stores b unchanged
func Bytes(b []byte) Blob {
	return Blob{kind: kindBytes, data: b}
}

// JSON stores v as compact JSON
func JSON(v interface{}) Blob {
	return Blob{kind: kindJSON, value: v}
}

// Image stores img as a JPEG
func Image(img image.Image) Blob {
	return Blob{kind: kindImage, img: img}
}

// Encode returns the bytes written for the blob
func (b Blob) Encode() ([]byte, error) {
	switch b.kind {
	case kindText:
		return []byte(b.text), nil
	case kindBytes:
		return b.data, nil
	case kindJSON:
		data, err := json.Marshal(b.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode json blob: %w", err)
		}
		return data, nil
	case kindImage:
		if b.img == nil {
			return nil, fmt.Errorf("image blob is empty")
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, b.img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image blob: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("blob has no content")
	}
}
