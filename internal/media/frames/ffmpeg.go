package frames

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"hardsub/internal/cues"
	"hardsub/internal/media/ffprobe"
	"hardsub/internal/services"
)

// FFmpegOpener opens videos with ffprobe and an ffmpeg raw-video pipe.
type FFmpegOpener struct {
	FFmpegBinary  string
	FFprobeBinary string
}

// Open probes path and starts the decoder. Failures are reported as
// services.ErrSourceUnavailable.
func (o FFmpegOpener) Open(ctx context.Context, path string) (Source, error) {
	return OpenFFmpeg(ctx, o.FFmpegBinary, o.FFprobeBinary, path)
}

// FFmpegSource decodes the first video stream of a file into RGBA frames.
type FFmpegSource struct {
	binary string
	info   VideoInfo

	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr strings.Builder
	buf    []byte
}

// OpenFFmpeg probes path with ffprobe and starts decoding from frame 0.
func OpenFFmpeg(ctx context.Context, ffmpegBinary, ffprobeBinary, path string) (*FFmpegSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "open video", path, err)
	}
	probe, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "probe video", path, err)
	}
	stream, ok := probe.VideoStream()
	if !ok || stream.Width <= 0 || stream.Height <= 0 {
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "probe video", path+" has no decodable video stream", nil)
	}
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	src := &FFmpegSource{
		binary: binary,
		info: VideoInfo{
			Path:       path,
			FPS:        probe.FrameRate(),
			FrameCount: probe.FrameCount(),
			Width:      stream.Width,
			Height:     stream.Height,
			Duration:   cues.SecondsToDuration(probe.DurationSeconds()),
		},
	}
	src.buf = make([]byte, src.info.Width*src.info.Height*4)
	if err := src.start(ctx, 0); err != nil {
		return nil, err
	}
	return src, nil
}

// Info implements Source.
func (s *FFmpegSource) Info() VideoInfo {
	return s.info
}

func (s *FFmpegSource) start(ctx context.Context, frame int) error {
	// Frames must keep the probed coded size; rotation metadata is ignored.
	args := []string{"-v", "error", "-nostdin", "-noautorotate"}
	if frame > 0 && s.info.FPS > 0 {
		args = append(args, "-ss", strconv.FormatFloat(float64(frame)/s.info.FPS, 'f', 6, 64))
	}
	args = append(args, "-i", s.info.Path, "-map", "0:v:0", "-an", "-sn",
		"-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1")

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, s.binary, args...) //nolint:gosec
	s.stderr.Reset()
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return services.Wrap(services.ErrSourceUnavailable, "decode", "start ffmpeg", s.info.Path, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return services.Wrap(services.ErrSourceUnavailable, "decode", "start ffmpeg", s.info.Path, err)
	}
	s.cmd = cmd
	s.cancel = cancel
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, len(s.buf))
	return nil
}

// Next implements Source. Each call returns a new image.
func (s *FFmpegSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.reader == nil {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(s.reader, s.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if waitErr := s.stop(); waitErr != nil && ctx.Err() == nil {
				return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "read frame",
					fmt.Sprintf("ffmpeg exited: %s", strings.TrimSpace(s.stderr.String())), waitErr)
			}
			return nil, io.EOF
		}
		return nil, services.Wrap(services.ErrSourceUnavailable, "decode", "read frame", s.info.Path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	copy(img.Pix, s.buf)
	return img, nil
}

// Seek restarts the decoder at frame.
func (s *FFmpegSource) Seek(ctx context.Context, frame int) error {
	_ = s.Close()
	if frame < 0 {
		frame = 0
	}
	return s.start(ctx, frame)
}

// Close terminates the decoder.
func (s *FFmpegSource) Close() error {
	if s.cmd == nil {
		return nil
	}
	s.cancel()
	_ = s.stop()
	return nil
}

func (s *FFmpegSource) stop() error {
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	cancel := s.cancel
	s.cmd = nil
	s.reader = nil
	_ = s.stdout.Close()
	err := cmd.Wait()
	cancel()
	return err
}
