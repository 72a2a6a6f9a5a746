package media

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// VideoInfo is what ffprobe reports about the first video stream.
type VideoInfo struct {
	Width     int
	Height    int
	Duration  time.Duration
	FrameRate float64
}

// Probe runs ffprobe on path.
func Probe(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate:format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (VideoInfo, error) {
	var doc interface{}
	if err := json.Unmarshal(out, &doc); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info VideoInfo
	w, err := jsonpath.Get("$.streams[0].width", doc)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("no video stream: %w", err)
	}
	h, err := jsonpath.Get("$.streams[0].height", doc)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("no video stream: %w", err)
	}
	info.Width, info.Height = toInt(w), toInt(h)
	if info.Width <= 0 || info.Height <= 0 {
		return VideoInfo{}, fmt.Errorf("invalid video size %dx%d", info.Width, info.Height)
	}

	if d, err := jsonpath.Get("$.format.duration", doc); err == nil {
		if secs, err := strconv.ParseFloat(fmt.Sprint(d), 64); err == nil {
			info.Duration = time.Duration(secs * float64(time.Second))
		}
	}
	if r, err := jsonpath.Get("$.streams[0].avg_frame_rate", doc); err == nil {
		info.FrameRate = parseRate(fmt.Sprint(r))
	}
	return info, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// parseRate reads ffprobe rationals such as "30000/1001".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// ffmpegVideo decodes frames sequentially from an ffmpeg rawvideo pipe. A
// request behind the current position restarts the decoder with a seek, so
// in-order sampling (export, playback) reads each frame once.
type ffmpegVideo struct {
	log     *zap.Logger
	path    string
	spilled string
	info    VideoInfo
	fps     int

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	reader  *bufio.Reader
	next    int // index of the frame the pipe yields next
	current *image.RGBA
	index   int // index of current, -1 if none
	eof     bool
}

func newFFmpegVideo(log *zap.Logger, path, spilled string, info VideoInfo, fps int) *ffmpegVideo {
	return &ffmpegVideo{
		log:     log,
		path:    path,
		spilled: spilled,
		info:    info,
		fps:     fps,
		index:   -1,
	}
}

func (v *ffmpegVideo) Size() (int, int)        { return v.info.Width, v.info.Height }
func (v *ffmpegVideo) Duration() time.Duration { return v.info.Duration }

func (v *ffmpegVideo) Frame(at time.Duration) (image.Image, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.path == "" {
		return nil, ErrReleased
	}
	if at < 0 {
		at = 0
	}
	target := int(math.Floor(at.Seconds() * float64(v.fps)))

	if target == v.index && v.current != nil {
		return v.current, nil
	}
	if v.cmd == nil || target < v.next {
		if err := v.restart(target); err != nil {
			return nil, err
		}
	}

	for v.next <= target && !v.eof {
		if err := v.readFrame(); err != nil {
			return nil, err
		}
	}
	if v.current == nil {
		return nil, fmt.Errorf("ffmpeg produced no frames for %s", v.path)
	}
	return v.current, nil
}

func (v *ffmpegVideo) restart(target int) error {
	v.stop()

	start := float64(target) / float64(v.fps)
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-ss", strconv.FormatFloat(start, 'f', 6, 64),
		"-i", v.path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-r", strconv.Itoa(v.fps),
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg decoder: %w", err)
	}

	v.cmd = cmd
	v.stdout = stdout
	v.reader = bufio.NewReaderSize(stdout, v.info.Width*v.info.Height*4)
	v.next = target
	v.eof = false
	v.log.Debug("Video decoder started", zap.String("path", v.path), zap.Float64("start", start))
	return nil
}

func (v *ffmpegVideo) readFrame() error {
	frame := image.NewRGBA(image.Rect(0, 0, v.info.Width, v.info.Height))
	if _, err := io.ReadFull(v.reader, frame.Pix); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// hold the last decoded frame past the end of the stream
			v.eof = true
			return nil
		}
		return fmt.Errorf("read video frame: %w", err)
	}
	v.current = frame
	v.index = v.next
	v.next++
	return nil
}

func (v *ffmpegVideo) stop() error {
	if v.cmd == nil {
		return nil
	}
	if v.cmd.Process != nil {
		v.cmd.Process.Kill()
	}
	// the process was killed, so a non-nil Wait result is expected
	v.cmd.Wait()
	v.cmd, v.stdout, v.reader = nil, nil, nil
	return nil
}

func (v *ffmpegVideo) Release() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	err := v.stop()
	if v.spilled != "" {
		if rerr := os.Remove(v.spilled); rerr != nil && !os.IsNotExist(rerr) {
			err = multierr.Append(err, rerr)
		}
		v.spilled = ""
	}
	v.path = ""
	v.current = nil
	return err
}

// Play is a no-op: frames are pulled by media time, not pushed by a clock.
func (v *ffmpegVideo) Play() error { return nil }

// Pause keeps the current frame and stops the decoder until it is needed again.
func (v *ffmpegVideo) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stop()
}

// SetVolume is ignored; audio is not decoded.
func (v *ffmpegVideo) SetVolume(float64) {}

// SetLoop is ignored; callers wrap the media time for looping scenes.
func (v *ffmpegVideo) SetLoop(bool) {}
