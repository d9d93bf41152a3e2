package compressors

import "bytes"

// signatureMarker appears in the signature dictionary of signed PDFs
var signatureMarker = []byte("/ByteRange")

// IsDigitallySigned reports whether the raw PDF bytes carry a signature marker.
// Rebuilding such a document would invalidate the signature.
func IsDigitallySigned(data []byte) bool {
	return bytes.Contains(data, signatureMarker)
}
