package quran

import (
	"fmt"
	"strings"
)

// Quality selects the bitrate variant of an audio URL.
type Quality string

const (
	QualityHigh Quality = "high"
	QualityLow  Quality = "low"
)

// Known bitrates in kbps.
var bitrates = map[Quality]int{
	QualityHigh: 128,
	QualityLow:  64,
}

// ParseQuality returns the quality for a name, defaulting to QualityHigh.
func ParseQuality(s string) Quality {
	switch Quality(strings.ToLower(strings.TrimSpace(s))) {
	case QualityLow:
		return QualityLow
	default:
		return QualityHigh
	}
}

// Bitrate returns the bitrate in kbps.
func (q Quality) Bitrate() int {
	if br, ok := bitrates[q]; ok {
		return br
	}
	return bitrates[QualityHigh]
}

// Other returns the opposite quality, used to rank the fallback bitrate.
func (q Quality) Other() Quality {
	if q == QualityLow {
		return QualityHigh
	}
	return QualityLow
}

func (q Quality) String() string {
	return string(q)
}

// WithQuality substitutes the bitrate segment of an audio URL with the one for
// q. Both "/128/" path segments and "_128kbps" folder suffixes are recognized.
// URLs without a known bitrate segment are returned unchanged.
func WithQuality(url string, q Quality) string {
	target := q.Bitrate()
	for _, br := range bitrates {
		if br == target {
			continue
		}
		if seg := fmt.Sprintf("/%d/", br); strings.Contains(url, seg) {
			return strings.Replace(url, seg, fmt.Sprintf("/%d/", target), 1)
		}
		if seg := fmt.Sprintf("_%dkbps", br); strings.Contains(url, seg) {
			return strings.Replace(url, seg, fmt.Sprintf("_%dkbps", target), 1)
		}
	}
	return url
}
