package contentid

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Mode selects where identifiers are read from.
type Mode string

const (
	ModeArgs  Mode = "args"
	ModeFile  Mode = "file"
	ModeStdin Mode = "stdin"
)

// ErrInvalidSource reports an unusable combination of mode and inputs.
var ErrInvalidSource = errors.New("invalid id source")

// Source describes one identifier input.
type Source struct {
	Mode  Mode
	Args  []string
	Path  string
	Stdin io.Reader
}

// ParseMode validates a user supplied input mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeArgs:
		return ModeArgs, nil
	case ModeFile:
		return ModeFile, nil
	case ModeStdin:
		return ModeStdin, nil
	default:
		return "", fmt.Errorf("%w: unknown input mode %q", ErrInvalidSource, value)
	}
}

// Resolve reads identifiers from the configured source.
func Resolve(ctx context.Context, src Source) ([]ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch src.Mode {
	case ModeArgs, "":
		if len(src.Args) == 0 {
			return nil, fmt.Errorf("%w: no ids given", ErrInvalidSource)
		}
		return FromArgs(src.Args), nil
	case ModeFile:
		if strings.TrimSpace(src.Path) == "" {
			return nil, fmt.Errorf("%w: file mode requires an id file", ErrInvalidSource)
		}
		return FromFile(src.Path)
	case ModeStdin:
		reader := src.Stdin
		if reader == nil {
			reader = os.Stdin
		}
		return FromReader(reader)
	default:
		return nil, fmt.Errorf("%w: unknown input mode %q", ErrInvalidSource, src.Mode)
	}
}

// FromArgs normalizes command-line tokens.
func FromArgs(args []string) []ID {
	ids := make([]ID, 0, len(args))
	for _, arg := range args {
		for _, token := range strings.Fields(arg) {
			ids = append(ids, Normalize(token))
		}
	}
	return Dedup(ids)
}

// FromReader reads whitespace separated tokens, any number per line.
func FromReader(r io.Reader) ([]ID, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)
	var ids []ID
	for scanner.Scan() {
		ids = append(ids, Normalize(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ids: %w", err)
	}
	return Dedup(ids), nil
}

// FromFile reads ids from path. Files ending in .json must hold a JSON array
// of strings; any other file uses the whitespace separated format.
func FromFile(path string) ([]ID, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id file: %w", err)
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		return FromReader(file)
	}

	var tokens []string
	if err := json.NewDecoder(file).Decode(&tokens); err != nil {
		if errors.Is(err, io.EOF) {
			return []ID{}, nil
		}
		return nil, fmt.Errorf("decode id file %s: %w", path, err)
	}
	ids := make([]ID, 0, len(tokens))
	for _, token := range tokens {
		if id := Normalize(token); id != "" {
			ids = append(ids, id)
		}
	}
	return Dedup(ids), nil
}
