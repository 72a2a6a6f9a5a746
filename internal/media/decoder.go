package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/scene2video/internal/errs"
)

var (
	errEmptyResource = errors.New("resource has no handle, data or path")
	errNoPixels      = errors.New("image has no pixels")
	errNoPages       = errors.New("pdf has no pages")
)

// Loader turns a Resource into a decoded Handle.
type Loader interface {
	Decode(ctx context.Context, res *Resource, kind Kind) (Handle, error)
}

// Decoder is the default Loader. Images go through imaging (EXIF orientation
// applied), PDFs through MuPDF, videos through ffprobe/ffmpeg.
type Decoder struct {
	log *zap.Logger

	// PDFDPI is the rasterization density for the first page of a PDF.
	PDFDPI float64
	// FPS is the rate video frames are sampled at.
	FPS int
	// TempDir receives spilled video blobs. Empty means os.TempDir.
	TempDir string
}

func NewDecoder(log *zap.Logger, pdfDPI float64, fps int) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	if pdfDPI <= 0 {
		pdfDPI = 150
	}
	if fps <= 0 {
		fps = 30
	}
	return &Decoder{log: log, PDFDPI: pdfDPI, FPS: fps}
}

func (d *Decoder) Decode(ctx context.Context, res *Resource, kind Kind) (Handle, error) {
	if res == nil {
		return nil, errs.MediaDecode("decode", "", errEmptyResource)
	}
	id := res.Identity()
	if res.Handle != nil {
		return borrowed{res.Handle}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		h   Handle
		err error
	)
	switch kind {
	case KindVideo:
		h, err = d.decodeVideo(ctx, res)
	default:
		h, err = d.decodeStill(res)
	}
	if err != nil {
		return nil, errs.MediaDecode("decode "+kind.String(), id, err)
	}

	w, hgt := h.Size()
	d.log.Debug("Decoded media",
		zap.String("id", id),
		zap.Stringer("kind", kind),
		zap.Int("width", w),
		zap.Int("height", hgt))
	return h, nil
}

func (d *Decoder) decodeStill(res *Resource) (Handle, error) {
	data := res.Data
	if data == nil {
		if res.Path == "" {
			return nil, errEmptyResource
		}
		var err error
		if data, err = os.ReadFile(res.Path); err != nil {
			return nil, err
		}
	}

	if isPDF(res, data) {
		img, err := d.renderPDF(data)
		if err != nil {
			return nil, err
		}
		return NewStill(img), nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errNoPixels
	}
	return NewStill(img), nil
}

func isPDF(res *Resource, data []byte) bool {
	mime := res.MIME
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return strings.HasPrefix(mime, "application/pdf") ||
		strings.HasSuffix(strings.ToLower(res.Path), ".pdf")
}

// renderPDF rasterizes the first page only; a PDF stands in for one still.
func (d *Decoder) renderPDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errNoPages
	}
	return doc.ImageDPI(0, d.PDFDPI)
}

// decodeVideo resolves a playable file for ffmpeg. Blobs are spilled to a
// temp file that the handle removes on Release.
func (d *Decoder) decodeVideo(ctx context.Context, res *Resource) (Handle, error) {
	path := res.Path
	var spilled string
	if res.Data != nil {
		f, err := os.CreateTemp(d.TempDir, "scene2video-*.media")
		if err != nil {
			return nil, fmt.Errorf("spill video blob: %w", err)
		}
		_, werr := f.Write(res.Data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(f.Name())
			return nil, fmt.Errorf("spill video blob: %w", multierr.Combine(werr, cerr))
		}
		path, spilled = f.Name(), f.Name()
	}
	if path == "" {
		return nil, errEmptyResource
	}

	info, err := Probe(ctx, path)
	if err != nil {
		if spilled != "" {
			os.Remove(spilled)
		}
		return nil, err
	}
	return newFFmpegVideo(d.log, path, spilled, info, d.FPS), nil
}
