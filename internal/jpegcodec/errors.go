package jpegcodec

import "errors"

// Failure classes reported by Compress and Decompress. The underlying
// collaborator error is wrapped alongside, so both are visible to
// errors.Is.
var (
	ErrConversionFailed = errors.New("pixel conversion failed")
	ErrEncodeFailed     = errors.New("encode failed")
	ErrDecodeFailed     = errors.New("decode failed")
	ErrTranscodeFailed  = errors.New("transcode failed")
)
