package config

import (
	"bytes"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// DiffSerialized renders a line-oriented diff between two raw configuration
// payloads, used when logging rejected reloads.
func DiffSerialized(previous, current []byte) string {
	if bytes.Equal(previous, current) {
		return ""
	}
	return cmp.Diff(configLines(previous), configLines(current))
}

func configLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
