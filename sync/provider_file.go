// ABOUTME: File-target provider writing the payload to a user-chosen path
// ABOUTME: Picker cancellation is a "no data" outcome, never a failure
package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// ErrPickerCancelled is returned by a FilePicker when the user dismisses
// the prompt without choosing a target.
var ErrPickerCancelled = errors.New("file picker cancelled")

// FilePicker resolves save and open targets for the file provider. The
// terminal implementation prompts the user; tests install fixed paths.
type FilePicker interface {
	// SaveTarget returns the path to write the sync file to.
	SaveTarget() (string, error)

	// OpenTarget returns the path to read a sync file from.
	OpenTarget() (string, error)
}

// FileProvider exports the payload to a file the user picks. The save
// target is prompted for once and reused; the open target is prompted for
// on every download.
type FileProvider struct {
	picker   FilePicker
	logger   *log.Logger
	savePath string
}

// NewFileProvider creates a file provider. A nil picker makes the provider
// unavailable (the host has no file-picking capability).
func NewFileProvider(picker FilePicker, logger *log.Logger) *FileProvider {
	if logger == nil {
		logger = defaultLogger()
	}
	return &FileProvider{picker: picker, logger: logger}
}

func (p *FileProvider) ID() string   { return "file" }
func (p *FileProvider) Name() string { return "File Export" }

// Available reports whether a picker is installed.
func (p *FileProvider) Available() bool { return p.picker != nil }

// Upload writes the payload as indented JSON to the save target, prompting
// for it lazily on the first call. Cancellation is a silent no-op.
func (p *FileProvider) Upload(ctx context.Context, payload *SyncPayload) error {
	if p.savePath == "" {
		path, err := p.picker.SaveTarget()
		if errors.Is(err, ErrPickerCancelled) || (err == nil && path == "") {
			p.logger.Printf("file: save cancelled")
			return nil
		}
		if err != nil {
			return &ProviderError{Provider: p.ID(), Op: "upload", Err: err}
		}
		p.savePath = path
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}
	if err := os.WriteFile(p.savePath, data, 0600); err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: err}
	}
	return nil
}

// Download prompts for an open target every time. Cancellation and a
// missing file both read as "no data".
func (p *FileProvider) Download(ctx context.Context) (*SyncPayload, error) {
	path, err := p.picker.OpenTarget()
	if errors.Is(err, ErrPickerCancelled) || (err == nil && path == "") {
		p.logger.Printf("file: open cancelled")
		return nil, nil
	}
	if err != nil {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: err}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: err}
	}
	return decodePayload(data, p.logger, p.ID()), nil
}

// Delete removes the remembered save target, if any.
func (p *FileProvider) Delete(ctx context.Context) error {
	if p.savePath == "" {
		return nil
	}
	if err := os.Remove(p.savePath); err != nil && !os.IsNotExist(err) {
		return &ProviderError{Provider: p.ID(), Op: "delete", Err: err}
	}
	p.savePath = ""
	return nil
}

// TerminalPicker prompts for paths on the terminal. An empty line counts
// as cancellation.
type TerminalPicker struct {
	In  io.Reader
	Out io.Writer
}

func (t *TerminalPicker) prompt(label string) (string, error) {
	if _, err := fmt.Fprintf(t.Out, "%s: ", label); err != nil {
		return "", err
	}
	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", ErrPickerCancelled
	}
	return path, nil
}

func (t *TerminalPicker) SaveTarget() (string, error) {
	return t.prompt("Save sync file to")
}

func (t *TerminalPicker) OpenTarget() (string, error) {
	return t.prompt("Open sync file from")
}
