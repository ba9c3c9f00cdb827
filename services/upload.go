package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"agency_site_go/models"
)

const MaxUploadSize = 10 * 1024 * 1024 // 10MB

var (
	ErrFileTooLarge = errors.New("file size exceeds the maximum limit of 10MB")
	ErrFileType     = errors.New("file type not allowed")
)

// allowedAttachments maps extensions to the content types sniffing may report.
// Office formats are zip containers and sniff as application/zip.
var allowedAttachments = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/octet-stream", "application/msword"},
	".docx": {"application/zip"},
	".txt":  {"text/plain; charset=utf-8"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// ValidateAttachment checks the size, extension and leading bytes of an
// uploaded brief. It returns the sniffed content type.
func ValidateAttachment(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > MaxUploadSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed, ok := allowedAttachments[ext]
	if !ok {
		return "", fmt.Errorf("%w: accepted formats are PDF, DOC, DOCX, TXT, JPG, PNG", ErrFileType)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	for _, a := range allowed {
		if a == detected {
			return contentTypeForExt(ext, detected), nil
		}
	}
	return "", fmt.Errorf("%w: content does not match %s", ErrFileType, ext)
}

func contentTypeForExt(ext, detected string) string {
	switch ext {
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	}
	return detected
}

// AttachInquiryFile stores the brief of a saved inquiry and records it on
// the model. The caller persists the updated fields.
func AttachInquiryFile(ctx context.Context, provider StorageProvider, inq *models.ServiceInquiry, fileHeader *multipart.FileHeader) error {
	contentType, err := ValidateAttachment(fileHeader)
	if err != nil {
		return err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := GenerateInquiryAttachmentKey(inq.ID, fileHeader.Filename)
	result, err := provider.Put(ctx, key, src, contentType, fileHeader.Size)
	if err != nil {
		return fmt.Errorf("failed to store attachment: %w", err)
	}

	inq.FileName = result.FileName
	inq.FileOriginalName = filepath.Base(fileHeader.Filename)
	inq.FilePath = result.Key
	inq.FileSize = result.Size
	inq.FileContentType = contentType
	return nil
}

// ReadInquiryFile opens a stored brief for download.
func ReadInquiryFile(ctx context.Context, provider StorageProvider, inq *models.ServiceInquiry) (io.ReadCloser, error) {
	if !inq.HasAttachment() {
		return nil, ErrLeadNotFound
	}
	rc, _, err := provider.Get(ctx, inq.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return rc, nil
}
