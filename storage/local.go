package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dharmaverse/utils"

	"github.com/dustin/go-humanize"
)

var (
	ErrTooLarge    = errors.New("file exceeds size limit")
	ErrInvalidPath = errors.New("invalid storage path")
	ErrEmptyFile   = errors.New("file is empty")
)

const sniffLen = 512

// Local stores uploaded files under Root/YYYY/MM/<id><ext>.
type Local struct {
	Root    string
	MaxSize int64 // 0 means unlimited
	Prefix  string

	now func() time.Time
}

// StoredFile describes a saved file. RelPath uses forward slashes.
type StoredFile struct {
	RelPath      string
	OriginalName string
	Size         int64
	Checksum     string
	MimeType     string
}

// NewLocal creates a Local store rooted at root.
func NewLocal(root string, maxSize int64, prefix string) *Local {
	return &Local{Root: root, MaxSize: maxSize, Prefix: prefix, now: utils.Now}
}

// Save copies src to a new file and returns its metadata. declaredType is
// the client-supplied Content-Type and is trusted unless it is empty or generic.
func (l *Local) Save(ctx context.Context, src io.Reader, originalName, declaredType string) (*StoredFile, error) {
	originalName = filepath.Base(strings.TrimSpace(originalName))
	if originalName == "." || originalName == string(filepath.Separator) {
		originalName = ""
	}

	id, err := utils.GenerateID(l.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to generate file id: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	relPath := filepath.Join(l.now().Format("2006/01"), strings.ToLower(id)+ext)
	absPath := filepath.Join(l.Root, relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage path: %w", err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrEmptyFile
	}

	mimeType := detectMimeType(declaredType, head, ext)

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var reader io.Reader = io.MultiReader(bytes.NewReader(head), src)
	if l.MaxSize > 0 {
		reader = io.LimitReader(reader, l.MaxSize+1)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), &ctxReader{ctx: ctx, r: reader})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	if l.MaxSize > 0 && size > l.MaxSize {
		return nil, fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.Bytes(uint64(l.MaxSize)))
	}

	if err := os.Rename(tmp.Name(), absPath); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	return &StoredFile{
		RelPath:      filepath.ToSlash(relPath),
		OriginalName: originalName,
		Size:         size,
		Checksum:     hex.EncodeToString(hash.Sum(nil)),
		MimeType:     mimeType,
	}, nil
}

// Resolve maps a stored relative path to its absolute location, rejecting
// paths that would leave Root.
func (l *Local) Resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", ErrInvalidPath
	}

	local := filepath.FromSlash(relPath)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, relPath)
	}
	return filepath.Join(l.Root, local), nil
}

// Remove deletes a stored file. Missing files are not an error.
func (l *Local) Remove(relPath string) error {
	path, err := l.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func detectMimeType(declared string, head []byte, ext string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && !isGeneric(mediaType) {
		return mediaType
	}

	if len(head) > 0 {
		if mediaType, _, err := mime.ParseMediaType(http.DetectContentType(head)); err == nil && !isGeneric(mediaType) {
			return mediaType
		}
	}

	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
				return mediaType
			}
		}
	}

	return "application/octet-stream"
}

func isGeneric(mediaType string) bool {
	switch strings.ToLower(mediaType) {
	case "", "application/octet-stream", "text/plain", "binary/octet-stream":
		return true
	}
	return false
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
