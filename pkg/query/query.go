// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-style URL query parameters.
package query

import (
	"strings"

	"github.com/taibuivan/libris/pkg/pointer"
	"github.com/taibuivan/libris/pkg/slice"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	return slice.Filter(slice.Map(strings.Split(val, ","), strings.TrimSpace), func(item string) bool {
		return item != ""
	})
}

// Bool parses a boolean flag. Unknown or empty values yield nil.
func Bool(val string) *bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return pointer.To(true)
	case "false", "0", "no":
		return pointer.To(false)
	}
	return nil
}
