package media

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

// SniffLen is how many leading bytes callers should hand to ValidateUpload.
const SniffLen = 3072

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupPDFs   mimeGroup = "pdfs"
)

var mimeGroupNames = map[mimeGroup]string{
	mimeGroupImages: "images",
	mimeGroupPDFs:   "PDFs",
}

var allowedMimeGroupsByKind = map[enums.MediaKind][]mimeGroup{
	enums.MediaKindPaymentProof: {mimeGroupImages, mimeGroupPDFs},
	enums.MediaKindProduct:      {mimeGroupImages},
	enums.MediaKindShipment:     {mimeGroupImages, mimeGroupPDFs},
}

// UploadCheck carries what is known about an upload before it is stored.
type UploadCheck struct {
	Kind         enums.MediaKind
	DeclaredType string
	Size         int64
	MaxBytes     int64
	Head         []byte
}

// ValidateUpload checks size and type. Both the declared content type and
// the sniffed bytes must fall in a group allowed for the kind, and they must
// agree on the group. It returns the sniffed mime type.
func ValidateUpload(check UploadCheck) (string, error) {
	if !check.Kind.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}
	if check.Size <= 0 || len(check.Head) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if check.MaxBytes > 0 && check.Size > check.MaxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file must be %d MB or smaller", check.MaxBytes/(1024*1024)))
	}

	declared, err := normalizeMimeType(check.DeclaredType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "content type invalid")
	}
	declaredGroup, ok := groupFor(declared)
	if !ok || !kindAllows(check.Kind, declaredGroup) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "only "+allowedMimeDescription(check.Kind)+" are accepted")
	}

	sniffed := mimetype.Detect(check.Head)
	sniffedType := strings.ToLower(sniffed.String())
	if i := strings.Index(sniffedType, ";"); i >= 0 {
		sniffedType = sniffedType[:i]
	}
	sniffedGroup, ok := groupFor(sniffedType)
	if !ok || sniffedGroup != declaredGroup {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file content does not match its declared type").
			WithDetails(map[string]any{"declared": declared, "detected": sniffedType})
	}
	return sniffedType, nil
}

func groupFor(mediaType string) (mimeGroup, bool) {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return mimeGroupImages, true
	case mediaType == "application/pdf":
		return mimeGroupPDFs, true
	default:
		return "", false
	}
}

func kindAllows(kind enums.MediaKind, group mimeGroup) bool {
	for _, g := range allowedMimeGroupsByKind[kind] {
		if g == group {
			return true
		}
	}
	return false
}

func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func allowedMimeDescription(kind enums.MediaKind) string {
	var names []string
	for _, g := range allowedMimeGroupsByKind[kind] {
		names = append(names, mimeGroupNames[g])
	}
	switch len(names) {
	case 0:
		return "the approved file types"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}
