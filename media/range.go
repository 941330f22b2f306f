package media

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// RangeSpec is a single parsed byte range.
//
// HasStart=false with HasEnd=true is a suffix range: End holds the number of
// trailing bytes requested rather than an offset.
type RangeSpec struct {
	Start    int64
	End      int64
	HasStart bool
	HasEnd   bool
}

// Suffix reports whether the range asks for the last End bytes.
func (s RangeSpec) Suffix() bool {
	return !s.HasStart && s.HasEnd
}

// ParseRange parses a Range header of the form "bytes=<start>-<end>" where
// either bound may be omitted, but not both. Anything else (empty, another
// unit, multiple ranges, signs or non-digits) reports ok=false and is served
// as a full response.
func ParseRange(header string) (RangeSpec, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return RangeSpec{}, false
	}

	unit, rng, found := strings.Cut(header, "=")
	if !found || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return RangeSpec{}, false
	}
	if strings.Contains(rng, ",") {
		return RangeSpec{}, false
	}

	startStr, endStr, found := strings.Cut(rng, "-")
	if !found {
		return RangeSpec{}, false
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	var rs RangeSpec
	if startStr != "" {
		v, ok := parseOffset(startStr)
		if !ok {
			return RangeSpec{}, false
		}
		rs.Start, rs.HasStart = v, true
	}
	if endStr != "" {
		v, ok := parseOffset(endStr)
		if !ok {
			return RangeSpec{}, false
		}
		rs.End, rs.HasEnd = v, true
	}

	if !rs.HasStart && !rs.HasEnd {
		return RangeSpec{}, false
	}
	return rs, true
}

func parseOffset(s string) (int64, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Resolve decides the status and byte window for a file of size bytes.
//
// No or malformed header yields 200 over the whole file. A parsed range is
// clamped to the file and must satisfy 0 <= start <= end < size, otherwise
// the error wraps ErrRangeNotSatisfiable and the returned Response carries
// status 416 for building the "bytes */size" header.
func Resolve(size int64, header, contentType string) (Response, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}

	full := Response{
		Status:      http.StatusOK,
		Window:      Window{Start: 0, End: size - 1},
		Size:        size,
		ContentType: contentType,
	}

	rng, ok := ParseRange(header)
	if !ok {
		return full, nil
	}

	var start, end int64
	switch {
	case rng.Suffix():
		if rng.End == 0 {
			return unsatisfiable(size, contentType, header)
		}
		start = size - rng.End
		if start < 0 {
			start = 0
		}
		end = size - 1
	default:
		start = rng.Start
		end = size - 1
		if rng.HasEnd && rng.End < end {
			end = rng.End
		}
	}

	if start < 0 || start > end || end >= size {
		return unsatisfiable(size, contentType, header)
	}

	return Response{
		Status:      http.StatusPartialContent,
		Window:      Window{Start: start, End: end},
		Size:        size,
		ContentType: contentType,
	}, nil
}

func unsatisfiable(size int64, contentType, header string) (Response, error) {
	resp := Response{
		Status:      http.StatusRequestedRangeNotSatisfiable,
		Size:        size,
		ContentType: contentType,
	}
	return resp, fmt.Errorf("%w: %q for size %d", ErrRangeNotSatisfiable, header, size)
}
