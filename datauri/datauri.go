package datauri

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Parse splits a base64 data URI ("data:image/jpeg;base64,...") into its
// declared media type and decoded bytes. Only base64-encoded payloads are
// accepted; that is the only form clients send.
func Parse(uri string) (mediaType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}
	rest := uri[len("data:"):]
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return "", nil, fmt.Errorf("data URI has no payload separator")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return mediaType, data, nil
}

// Encode builds a base64 data URI for the given media type and bytes.
func Encode(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}
