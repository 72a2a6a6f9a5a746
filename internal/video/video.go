package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/system"
)

var errSinkClosed = errors.New("sink already closed")

//go:generate mockgen -destination=mocks/video_mock.go -package=mocks github.com/ivlev/scene2video/internal/video VideoEncoder,FrameSink

// Output is a finished movie.
type Output struct {
	Data     []byte
	MIMEType string
	Filename string
	// Path is where the container was written when ExportParams.OutputPath
	// was set; empty otherwise.
	Path string
}

// VideoEncoder is the external encoding capability.
type VideoEncoder interface {
	// Available reports an UnsupportedEnvironment error when the encoder
	// cannot run on this host.
	Available() error
	Open(ctx context.Context, params config.ExportParams) (FrameSink, error)
}

// FrameSink receives timestamped frames for one movie. Exactly one of Close
// or Abort ends it.
type FrameSink interface {
	WriteFrame(img *image.RGBA, ts time.Duration) error
	Close() (*Output, error)
	Abort() error
}

// Container describes an output format.
type Container struct {
	Format    string
	MIMEType  string
	Filename  string
	Codec     string
	MuxerArgs []string
}

// ContainerFor returns the container for an export format. webm always uses
// VP9; mp4 uses the configured H.264 encoder.
func ContainerFor(params config.ExportParams) (Container, error) {
	switch strings.ToLower(params.Format) {
	case "", "mp4":
		codec := params.VideoEncoder
		if codec == "" {
			codec = "libx264"
		}
		return Container{
			Format:    "mp4",
			MIMEType:  "video/mp4",
			Filename:  "movie.mp4",
			Codec:     codec,
			MuxerArgs: []string{"-movflags", "+faststart"},
		}, nil
	case "webm":
		return Container{
			Format:   "webm",
			MIMEType: "video/webm",
			Filename: "movie.webm",
			Codec:    "libvpx-vp9",
		}, nil
	}
	return Container{}, fmt.Errorf("unsupported format %q", params.Format)
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	log *zap.Logger
	// TempDir holds the container while it is written. Empty means os.TempDir.
	TempDir string
}

func NewFFmpegEncoder(log *zap.Logger) *FFmpegEncoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &FFmpegEncoder{log: log}
}

func (e *FFmpegEncoder) Available() error {
	if err := system.CheckFFmpeg(); err != nil {
		return errs.UnsupportedEnvironment("encoder", err)
	}
	return nil
}

func (e *FFmpegEncoder) Open(ctx context.Context, params config.ExportParams) (FrameSink, error) {
	container, err := ContainerFor(params)
	if err != nil {
		return nil, errs.Encoding("open encoder", err)
	}
	if params.Width <= 0 || params.Height <= 0 || params.FPS <= 0 {
		return nil, errs.Encoding("open encoder", fmt.Errorf("invalid parameters %dx%d@%d", params.Width, params.Height, params.FPS))
	}

	outPath, temp := params.OutputPath, false
	if outPath == "" {
		f, err := os.CreateTemp(e.TempDir, "scene2video-*."+container.Format)
		if err != nil {
			return nil, errs.Encoding("open encoder", err)
		}
		f.Close()
		outPath, temp = f.Name(), true
	}

	args := buildArgs(params, container, outPath)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errs.Encoding("open encoder", fmt.Errorf("stdin pipe error: %w", err))
	}
	if err := cmd.Start(); err != nil {
		if temp {
			os.Remove(outPath)
		}
		return nil, errs.Encoding("open encoder", fmt.Errorf("ffmpeg start error: %w", err))
	}

	e.log.Debug("Encoder started",
		zap.String("codec", container.Codec),
		zap.String("output", outPath),
		zap.Strings("args", args))

	return &ffmpegSink{
		log:       e.log,
		params:    params,
		container: container,
		cmd:       cmd,
		stdin:     stdin,
		stderr:    stderr,
		outPath:   outPath,
		temp:      temp,
		lastTS:    -1,
	}, nil
}

func buildArgs(params config.ExportParams, c Container, outPath string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", strconv.Itoa(params.FPS),
		"-i", "-",
		"-an",
		"-c:v", c.Codec,
		"-pix_fmt", "yuv420p",
	}
	args = append(args, qualityArgs(c.Codec, params.Quality)...)
	args = append(args, c.MuxerArgs...)
	args = append(args, "-f", c.Format, outPath)
	return args
}

// qualityArgs maps the single quality knob onto each encoder's rate control.
func qualityArgs(codec string, quality int) []string {
	if quality <= 0 {
		quality = system.DefaultQuality(codec)
	}
	switch codec {
	case "h264_videotoolbox":
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	case "libvpx-vp9":
		return []string{"-crf", strconv.Itoa(quality), "-b:v", "0", "-row-mt", "1"}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

type ffmpegSink struct {
	log       *zap.Logger
	params    config.ExportParams
	container Container

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *tailBuffer
	outPath string
	temp    bool
	frames  int
	lastTS  time.Duration
	done    bool
}

func (s *ffmpegSink) WriteFrame(img *image.RGBA, ts time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return errs.Encoding("write frame", errSinkClosed)
	}
	if b := img.Bounds(); b.Dx() != s.params.Width || b.Dy() != s.params.Height {
		return errs.Encoding("write frame", fmt.Errorf("frame %d is %dx%d, expected %dx%d",
			s.frames, b.Dx(), b.Dy(), s.params.Width, s.params.Height))
	}
	if ts <= s.lastTS {
		return errs.Encoding("write frame", fmt.Errorf("frame %d timestamp %v not after %v", s.frames, ts, s.lastTS))
	}

	if err := writeRawRGBA(s.stdin, img); err != nil {
		return errs.Encoding("write frame", fmt.Errorf("write raw error: %w: %s", err, s.stderr.String()))
	}
	s.frames++
	s.lastTS = ts
	return nil
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	if img.Stride == rowLen && img.Rect.Min == (image.Point{}) {
		_, err := w.Write(img.Pix[:rowLen*b.Dy()])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := w.Write(img.Pix[off : off+rowLen]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ffmpegSink) Close() (*Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, errs.Encoding("close encoder", errSinkClosed)
	}
	s.done = true

	closeErr := s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		s.removeOutput()
		return nil, errs.Encoding("close encoder", fmt.Errorf("ffmpeg wait error: %w: %s", err, s.stderr.String()))
	}
	if closeErr != nil {
		s.removeOutput()
		return nil, errs.Encoding("close encoder", closeErr)
	}

	data, err := os.ReadFile(s.outPath)
	if err != nil {
		s.removeOutput()
		return nil, errs.Encoding("read output", err)
	}

	out := &Output{Data: data, MIMEType: s.container.MIMEType, Filename: s.container.Filename}
	if s.temp {
		os.Remove(s.outPath)
	} else {
		out.Path = s.outPath
	}
	s.log.Debug("Encoder finished", zap.Int("frames", s.frames), zap.Int("bytes", len(data)))
	return out, nil
}

// Abort kills the encoder and deletes whatever was written.
func (s *ffmpegSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}
	s.done = true

	err := s.stdin.Close()
	if s.cmd.Process != nil {
		if kerr := s.cmd.Process.Kill(); kerr != nil && !strings.Contains(kerr.Error(), "process already finished") {
			err = multierr.Append(err, kerr)
		}
	}
	// the process was killed, so Wait reports that; only the side effects matter
	s.cmd.Wait()
	return multierr.Append(err, s.removeOutput())
}

func (s *ffmpegSink) removeOutput() error {
	if err := os.Remove(s.outPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// tailBuffer keeps the last limit bytes written, for error messages.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
