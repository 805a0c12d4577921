package loader

import (
	"io"
	"os"

	"github.com/spektr-org/pitchboard/errors"
)

// ReadRaw decodes r and returns its header and rows as text without
// checking them against the pitching layout. Profiling uses it.
func ReadRaw(r io.Reader, opts Options) ([]string, [][]string, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, nil, err
	}
	all, err := newReader(r, opts).ReadAll()
	if err != nil {
		return nil, nil, csvError(err)
	}
	if len(all) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeParse, "missing header").WithDetail("line", 1)
	}
	header := all[0]
	if len(header) > 0 {
		header[0] = stripBOM(header[0])
	}
	return header, all[1:], nil
}

// ReadRawFile is ReadRaw over a file. It does not touch the memo.
func ReadRawFile(path string, opts Options) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeIO, "cannot read dataset").WithDetail("path", path)
	}
	defer f.Close()
	return ReadRaw(f, opts)
}
