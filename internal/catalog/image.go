package catalog

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

const dataURLPrefix = "data:"

// EncodeImage checks an uploaded image against the size cap and the image
// content type, and returns it as an inline data URL. Both the declared type
// and the sniffed type must be image/*.
func EncodeImage(contentType string, data []byte, maxBytes int64) (string, error) {
	mediaType, err := checkImage(contentType, data, maxBytes)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL splits a base64 data URL into its media type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return "", nil, errors.New("not a data url")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, dataURLPrefix), ",")
	if !ok {
		return "", nil, errors.New("malformed data url")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data url is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mediaType, data, nil
}

func checkImage(contentType string, data []byte, maxBytes int64) (string, error) {
	if int64(len(data)) > maxBytes {
		return "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return "", ErrNotAnImage
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrNotAnImage
	}
	if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, "image/") {
		return "", ErrNotAnImage
	}
	return mediaType, nil
}
