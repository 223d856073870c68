package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"ytdb/internal/contentid"
	"ytdb/internal/logging"
	"ytdb/internal/store"
)

// WatchURL is the URL prefix handed to yt-dlp for an id.
const WatchURL = "https://www.youtube.com/watch?v="

// maxStderrLines bounds the diagnostic lines kept for classification.
const maxStderrLines = 200

const maxLineBytes = 1024 * 1024

// Request describes one fetch.
type Request struct {
	ID            contentid.ID
	Target        store.TargetType
	DestDir       string
	CookiesFile   string
	SleepRequests int
	SleepInterval int
}

// Executor abstracts command execution for testability. Implementations
// return an error exposing ExitCode() int when the command exits non-zero.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger routes tool output to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "ytdlp")
		}
	}
}

// WithNetrc toggles the --netrc flag.
func WithNetrc(enabled bool) Option {
	return func(c *Client) {
		c.netrc = enabled
	}
}

// WithFFmpegLocation passes --ffmpeg-location when path names a file rather
// than a bare command.
func WithFFmpegLocation(path string) Option {
	return func(c *Client) {
		path = strings.TrimSpace(path)
		if strings.ContainsRune(path, filepath.Separator) {
			c.ffmpeg = path
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	netrc   bool
	ffmpeg  string
	exec    Executor
	logger  *slog.Logger
}

// New constructs a yt-dlp client. A positive timeoutSeconds bounds each fetch.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		netrc:   true,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Args returns the yt-dlp argument list for req.
func (c *Client) Args(req Request) []string {
	args := make([]string, 0, 14)
	if c.netrc {
		args = append(args, "--netrc")
	}
	args = append(args, WatchURL+string(req.ID))
	if req.Target == store.TargetAudio {
		args = append(args, "-f", "bestaudio")
	}
	args = append(args,
		"--write-info-json",
		"--output", filepath.Join(req.DestDir, string(req.Target)+".%(ext)s"),
	)
	if cookies := strings.TrimSpace(req.CookiesFile); cookies != "" {
		args = append(args, "--cookies", cookies)
	}
	if req.SleepRequests > 0 {
		args = append(args, "--sleep-requests", strconv.Itoa(req.SleepRequests))
	}
	if req.SleepInterval > 0 {
		args = append(args, "--sleep-interval", strconv.Itoa(req.SleepInterval))
	}
	if c.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", c.ffmpeg)
	}
	return args
}

// Fetch downloads req.Target for req.ID into req.DestDir.
func (c *Client) Fetch(ctx context.Context, req Request) error {
	if req.DestDir == "" {
		return errors.New("destination directory required")
	}
	if req.ID == "" {
		return errors.New("content id required")
	}

	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger := c.logger.With(logging.String(logging.FieldContentID, string(req.ID)))
	stderr := newTailBuffer(maxStderrLines)
	started := time.Now()
	err := c.exec.Run(fetchCtx, c.binary, c.Args(req),
		func(line string) {
			logger.Debug("yt-dlp output", logging.String("line", line))
		},
		func(line string) {
			stderr.add(line)
			logger.Debug("yt-dlp diagnostic", logging.String("line", line))
		})
	if err == nil {
		logger.Debug("yt-dlp finished", logging.Duration("elapsed", time.Since(started)))
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("yt-dlp %s: %w", req.ID, ctxErr)
	}
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		stderr.add(fmt.Sprintf("ERROR: fetch timed out after %s", c.timeout))
		return &ToolError{ExitCode: -1, Stderr: stderr.String()}
	}
	if errors.Is(err, bufio.ErrTooLong) {
		stderr.add(fmt.Sprintf("ERROR: yt-dlp output line exceeds %d bytes", maxLineBytes))
		return &ToolError{ExitCode: -1, Stderr: stderr.String()}
	}
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return &ToolError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return fmt.Errorf("yt-dlp %s: %w", req.ID, err)
}

type tailBuffer struct {
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) add(line string) {
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

func (b *tailBuffer) String() string {
	return strings.Join(b.lines, "\n")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			if forward == nil {
				continue
			}
			mu.Lock()
			forward(scanner.Text())
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
				_ = cmd.Process.Kill()
			})
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(stdout, onStdout)
	go scan(stderr, onStderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
