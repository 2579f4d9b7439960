package svgraster

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/srwiley/oksvg"
	"github.com/vincent-petithory/dataurl"
)

const svgMediaType = "image/svg+xml"

var errEmptyOutput = errors.New("empty output")

// DecodeError is returned when the sanitized document
// can't be decoded as an SVG image (unsupported or malformed values).
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("svgraster: SVG cannot be decoded as an image: %s", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is returned when the PNG encoding fails.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("svgraster: PNG conversion failed: %s", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DataURI returns the percent-encoded (not base64) data URI of an SVG text.
func DataURI(svg string) string {
	du := dataurl.New([]byte(svg), svgMediaType, "charset", "utf-8")
	du.Encoding = dataurl.EncodingASCII
	return du.String()
}

type decoded struct {
	icon *oksvg.SvgIcon
	err  error
}

// decodeImage reads the data URI as an SVG image. The decode runs on its own
// goroutine and is abandoned if ctx is done first.
func decodeImage(ctx context.Context, uri string) (*oksvg.SvgIcon, error) {
	done := make(chan decoded, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- decoded{err: &DecodeError{Err: fmt.Errorf("%v", r)}}
			}
		}()
		du, err := dataurl.DecodeString(uri)
		if err != nil {
			done <- decoded{err: &DecodeError{Err: err}}
			return
		}
		if mt := du.Type + "/" + du.Subtype; mt != svgMediaType {
			done <- decoded{err: &DecodeError{Err: fmt.Errorf("unexpected media type %s", mt)}}
			return
		}
		// oksvg skips the elements it does not draw; text is drawn by drawText
		icon, err := oksvg.ReadIconStream(bytes.NewReader(du.Data), oksvg.IgnoreErrorMode)
		if err != nil {
			done <- decoded{err: &DecodeError{Err: err}}
			return
		}
		done <- decoded{icon: icon}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("svgraster: decoding image: %w", ctx.Err())
	case res := <-done:
		return res.icon, res.err
	}
}
