// Package jxl drives the JPEG XL reference tools: lossless JPEG→JXL
// transcoding with cjxl and decoding with djxl.
package jxl

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotJPEG          = errors.New("input is not a jpeg stream")
	ErrTruncated        = errors.New("jpeg stream has no end marker")
	ErrNotJXL           = errors.New("input is not a jxl stream")
	ErrNoFormats        = errors.New("no accepted pixel formats")
	ErrMixedBitDepth    = errors.New("accepted formats disagree on bit depth")
	ErrUnsupportedDepth = errors.New("unsupported bit depth")
)

// FrameSetting identifies an encoder option, after libjxl's
// JxlEncoderFrameSettingId.
type FrameSetting int

const (
	// FrameSettingEffort is the encoder effort, 1-10.
	FrameSettingEffort FrameSetting = iota
	// FrameSettingJPEGReconCFL toggles chroma-from-luma prediction when
	// recompressing JPEG data (0 disables it).
	FrameSettingJPEGReconCFL
)

var frameSettingFlags = map[FrameSetting]string{
	FrameSettingEffort:       "--effort",
	FrameSettingJPEGReconCFL: "--jpeg_reconstruction_cfl",
}

// CompressParams configure a transcode.
type CompressParams struct {
	Options map[FrameSetting]int64
}

// AddOption sets one frame setting.
func (p *CompressParams) AddOption(id FrameSetting, value int64) {
	if p.Options == nil {
		p.Options = make(map[FrameSetting]int64)
	}
	p.Options[id] = value
}

func (p CompressParams) args() []string {
	ids := make([]int, 0, len(p.Options))
	for id := range p.Options {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	args := []string{"--lossless_jpeg=1"}
	for _, id := range ids {
		flag, ok := frameSettingFlags[FrameSetting(id)]
		if !ok {
			continue
		}
		args = append(args, fmt.Sprintf("%s=%d", flag, p.Options[FrameSetting(id)]))
	}
	return args
}

var (
	jpegSOI       = []byte{0xff, 0xd8}
	jpegEOI       = []byte{0xff, 0xd9}
	jxlCodestream = []byte{0xff, 0x0a}
	jxlContainer  = []byte{0, 0, 0, 0x0c, 'J', 'X', 'L', ' ', 0x0d, 0x0a, 0x87, 0x0a}
)

// IsJXL reports whether data starts with a JPEG XL signature.
func IsJXL(data []byte) bool {
	return bytes.HasPrefix(data, jxlCodestream) || bytes.HasPrefix(data, jxlContainer)
}
