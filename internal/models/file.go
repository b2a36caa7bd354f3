package models

import "time"

// UploadedFile метаданные загруженного файла.
type UploadedFile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	FileURL      string    `json:"fileUrl"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	Context      string    `json:"context,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
