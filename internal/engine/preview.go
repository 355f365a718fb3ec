package engine

import (
	"bytes"
	"encoding/base64"

	"github.com/disintegration/imaging"
)

const previewSize = 320

// Preview renders a small JPEG thumbnail of the image as a data URL for
// inline display. It returns "" when the bytes do not decode; previews are
// best-effort and never fail a request.
func Preview(data []byte) string {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	thumb := imaging.Fit(img, previewSize, previewSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(70)); err != nil {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
