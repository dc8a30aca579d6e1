package timelapse

import (
	"fmt"
	"strings"
)

// SizePreset is a named output resolution
type SizePreset int

const (
	SizeOriginal SizePreset = iota
	Size4K
	Size1080p
	Size720p
	Size480p
)

type presetInfo struct {
	name   string
	label  string
	width  int
	height int
}

var presets = map[SizePreset]presetInfo{
	SizeOriginal: {name: "original", label: "Original"},
	Size4K:       {name: "4k", label: "4K (3840x2160)", width: 3840, height: 2160},
	Size1080p:    {name: "1080p", label: "1080p (1920x1080)", width: 1920, height: 1080},
	Size720p:     {name: "720p", label: "720p (1280x720)", width: 1280, height: 720},
	Size480p:     {name: "480p", label: "480p (854x480)", width: 854, height: 480},
}

// SizePresets lists presets in display order
var SizePresets = []SizePreset{SizeOriginal, Size4K, Size1080p, Size720p, Size480p}

func (p SizePreset) String() string {
	if info, ok := presets[p]; ok {
		return info.name
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// Label is the human readable form, e.g. "720p (1280x720)"
func (p SizePreset) Label() string {
	if info, ok := presets[p]; ok {
		return info.label
	}
	return p.String()
}

// ParseSizePreset accepts the short names ("original", "4k", "2160p", "1080p",
// "720p", "480p") and the display labels, case-insensitively.
func ParseSizePreset(s string) (SizePreset, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "2160p" || key == "uhd" {
		return Size4K, nil
	}
	for _, p := range SizePresets {
		info := presets[p]
		if key == info.name || key == strings.ToLower(info.label) {
			return p, nil
		}
	}
	return SizeOriginal, fmt.Errorf("unknown size preset %q (want original, 4k, 1080p, 720p or 480p)", s)
}

// Resolve maps a preset and the first frame's native size to the run's fixed
// output size. Original keeps the native size.
func Resolve(preset SizePreset, nativeW, nativeH int) (int, int) {
	info, ok := presets[preset]
	if !ok || preset == SizeOriginal {
		return nativeW, nativeH
	}
	return info.width, info.height
}

// UnmarshalText lets presets be read from config files and flags
func (p *SizePreset) UnmarshalText(text []byte) error {
	parsed, err := ParseSizePreset(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText writes the short name
func (p SizePreset) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
