// Package upload stores user-uploaded files on the local filesystem under
// generated names, enforcing per-use size and type policies.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrTooLarge        = errors.New("file too large")
	ErrTypeNotAllowed  = errors.New("file type not allowed")
	ErrInvalidFilename = errors.New("invalid stored file name")
)

// URLPrefix is the path under which stored files are served.
const URLPrefix = "/uploads/"

// Policy restricts what a single upload may contain.
type Policy struct {
	MaxBytes int64
	// Extensions lists the accepted lower-case extensions without the dot.
	Extensions []string
	// MIMETypes lists the accepted sniffed content types. Empty accepts any
	// content whose extension is allowed.
	MIMETypes []string
}

// ImagePolicy accepts JPEG, PNG and GIF images up to maxBytes. Both the
// extension and the sniffed content must match.
func ImagePolicy(maxBytes int64) Policy {
	return Policy{
		MaxBytes:   maxBytes,
		Extensions: []string{"jpeg", "jpg", "png", "gif"},
		MIMETypes:  []string{"image/jpeg", "image/png", "image/gif"},
	}
}

// DocumentPolicy accepts the office, archive and text formats published in
// the downloads section.
func DocumentPolicy(maxBytes int64) Policy {
	return Policy{
		MaxBytes:   maxBytes,
		Extensions: []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "zip", "rar", "txt"},
	}
}

// Stored describes a file written by Storage.Save.
type Stored struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MIMEType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// Storage writes uploads into a single directory.
type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the directory files are stored in.
func (s *Storage) Dir() string {
	return s.dir
}

// Save validates fh against p and writes it under a fresh
// file-<uuid><ext> name.
func (s *Storage) Save(fh *multipart.FileHeader, p Policy) (*Stored, error) {
	if fh == nil {
		return nil, ErrNoFile
	}
	if p.MaxBytes > 0 && fh.Size > p.MaxBytes {
		return nil, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(p.Extensions, strings.TrimPrefix(ext, ".")) {
		return nil, ErrTypeNotAllowed
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if len(p.MIMETypes) > 0 && !slices.ContainsFunc(p.MIMETypes, mtype.Is) {
		return nil, ErrTypeNotAllowed
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	name := "file-" + uuid.Must(uuid.NewV7()).String() + ext
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create stored file: %w", err)
	}

	reader := io.Reader(src)
	if p.MaxBytes > 0 {
		reader = io.LimitReader(src, p.MaxBytes+1)
	}
	n, err := io.Copy(dst, reader)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && p.MaxBytes > 0 && n > p.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("write stored file: %w", err)
	}

	return &Stored{
		Filename:     name,
		OriginalName: fh.Filename,
		MIMEType:     mtype.String(),
		Size:         n,
		URL:          URLPrefix + name,
	}, nil
}

// Open opens a stored file for reading.
func (s *Storage) Open(name string) (*os.File, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes a stored file. Removing a file that no longer exists is not
// an error.
func (s *Storage) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return nil
}

// path resolves a stored name, refusing anything that would escape the
// upload directory.
func (s *Storage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir, name), nil
}
