package ui

import (
	"fmt"
	"sort"

	"github.com/arthur-debert/reciper/pkg/errors"
)

// errorDetails lists the details attached to err as sorted "key: value" lines.
func errorDetails(err error) []string {
	details := errors.GetErrorDetails(err)
	if len(details) == 0 {
		return nil
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, details[k]))
	}
	return lines
}
