package jxl

import (
	"bytes"
	"os"

	"github.com/AnyUserName/jpegbench/internal/tool"
)

// Transcoder recompresses JPEG bytes into JPEG XL losslessly via cjxl.
// Install: apt install libjxl-tools / brew install jpeg-xl
type Transcoder struct {
	bin *tool.Tool
}

// NewTranscoder locates cjxl lazily on first use.
func NewTranscoder() *Transcoder {
	return &Transcoder{bin: tool.New("cjxl", "apt install libjxl-tools / brew install jpeg-xl")}
}

func (t *Transcoder) Available() bool { return t.bin.Available() }

// TranscodeJPEG returns the JXL recompression of jpeg.
func (t *Transcoder) TranscodeJPEG(jpeg []byte, params CompressParams) ([]byte, error) {
	if !bytes.HasPrefix(jpeg, jpegSOI) {
		return nil, ErrNotJPEG
	}
	if bytes.LastIndex(jpeg, jpegEOI) < len(jpegSOI) {
		return nil, ErrTruncated
	}

	w := tool.NewWorkdir("jpegbench_cjxl")
	defer w.Cleanup()
	srcPath, err := w.Write("jpg", jpeg)
	if err != nil {
		return nil, err
	}
	dstPath, err := w.Reserve("jxl")
	if err != nil {
		return nil, err
	}

	args := append([]string{srcPath, dstPath}, params.args()...)
	args = append(args, "--quiet")
	if err := t.bin.Run(args...); err != nil {
		return nil, err
	}
	return os.ReadFile(dstPath)
}
