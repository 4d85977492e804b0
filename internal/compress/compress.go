// Package compress provides the codecs applied to version content at rest.
package compress

// Compress encodes and decodes content blobs before they hit the database.
type Compress interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ForName maps a configured codec name to an implementation. Unknown names
// fall back to the nop codec.
func ForName(name string) Compress {
	switch name {
	case "gzip":
		return NewGZip()
	case "lz4":
		return NewLZ4()
	default:
		return NewNop()
	}
}
