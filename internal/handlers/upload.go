package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 8 << 20
)

type uploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// parseUploadedFile extracts a single file for the named form field.
// Returns nil when the field is absent.
func parseUploadedFile(form *multipart.Form, field string, limit int64) (*uploadedFile, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("only one %s file is allowed", field)
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", field, err)
	}

	data, err := readFileLimited(file, limit)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &uploadedFile{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

// objectKey builds a unique storage key under the given prefix,
// keeping the original file extension.
func objectKey(prefix string, ownerID int, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%d-%d%s", prefix, ownerID, time.Now().UnixNano(), ext)
}
