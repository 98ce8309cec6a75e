package model

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	DefaultFolderID   = "default"
	DefaultFolderName = "My Study Materials"
)

// Folder groups classroom files
type Folder struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Files []FileItem `json:"files"`
}

// FileItem is a file stored inline as a data URL
type FileItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DataURL      string  `json:"dataUrl"`
	SubjectTagID *string `json:"subjectTagId,omitempty"` // Non-owning, may dangle
}

// DefaultFolder returns the folder materialized when storage holds none
func DefaultFolder() Folder {
	return Folder{ID: DefaultFolderID, Name: DefaultFolderName, Files: []FileItem{}}
}

// FileIndex returns the position of the file or -1
func (f *Folder) FileIndex(fileID string) int {
	for i := range f.Files {
		if f.Files[i].ID == fileID {
			return i
		}
	}
	return -1
}

// EncodeDataURL builds a data: URL for the payload
func EncodeDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL returns the mime type and payload of a base64 data URL
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url")
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data url is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	return mime, data, nil
}
