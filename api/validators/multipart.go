package validators

import (
	"errors"
	"mime/multipart"
	"net/http"

	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

// multipartOverhead covers boundaries and part headers around the file.
const multipartOverhead = 1 << 20

// UploadedFile is a single file field read from a multipart form.
type UploadedFile struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// Close releases the file and any temp storage backing the form.
func (u *UploadedFile) Close() {
	if u == nil || u.File == nil {
		return
	}
	_ = u.File.Close()
}

// ContentType is the type the client declared for the part.
func (u *UploadedFile) ContentType() string {
	if u == nil || u.Header == nil {
		return ""
	}
	return u.Header.Header.Get("Content-Type")
}

// ParseSingleFile reads one file field from a multipart request. Bodies
// larger than maxBytes plus framing are cut off before they are buffered.
func ParseSingleFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the upload limit").
				WithDetails(map[string]any{"field": field, "max_bytes": maxBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	if r.MultipartForm != nil && len(r.MultipartForm.File[field]) > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only one file may be uploaded").WithDetails(map[string]any{"field": field})
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required").WithDetails(map[string]any{"field": field})
	}
	return &UploadedFile{File: file, Header: header}, nil
}
