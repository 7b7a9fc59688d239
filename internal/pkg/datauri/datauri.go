// Package datauri encodes and decodes base64 data URIs used for inline media.
package datauri

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrMalformed = errors.New("malformed data uri")

// Encode returns data:<mime>;base64,<payload>.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode parses a base64 data URI. Only base64 payloads are accepted.
func Decode(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrMalformed
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformed
	}
	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrMalformed
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrMalformed
	}
	return mimeType, data, nil
}
