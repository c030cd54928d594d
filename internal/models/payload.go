package models

import (
	"encoding/base64"
	"regexp"
	"unicode/utf8"
)

// PayloadState describes how a script payload was interpreted at load time.
type PayloadState string

const (
	PayloadEmpty       PayloadState = "empty"
	PayloadPlain       PayloadState = "plain"
	PayloadDecoded     PayloadState = "decoded"
	PayloadUndecodable PayloadState = "undecodable"
)

var base64Alphabet = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// LooksBase64 reports whether s consists only of base64 alphabet characters.
func LooksBase64(s string) bool {
	return base64Alphabet.MatchString(s)
}

// DecodePayload interprets a raw script payload. It never fails: content that
// cannot be decoded is returned verbatim with PayloadUndecodable.
func DecodePayload(raw string) (string, PayloadState) {
	if raw == "" {
		return "", PayloadEmpty
	}
	if !LooksBase64(raw) {
		return raw, PayloadPlain
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || !utf8.Valid(decoded) {
		return raw, PayloadUndecodable
	}
	return string(decoded), PayloadDecoded
}
