package entities

import "strings"

// Preset is a quality tier of the aggressive document rebuild
type Preset string

const (
	PresetScreen   Preset = "screen"
	PresetEbook    Preset = "ebook"
	PresetPrinter  Preset = "printer"
	PresetPrepress Preset = "prepress"
)

// NormalizePreset maps a user supplied preset name onto a known preset.
// Matching is case-insensitive; unknown names fall back to ebook.
func NormalizePreset(name string) Preset {
	switch p := Preset(strings.ToLower(strings.TrimSpace(name))); p {
	case PresetScreen, PresetEbook, PresetPrinter, PresetPrepress:
		return p
	default:
		return PresetEbook
	}
}

// PDFSettings returns the value of the -dPDFSETTINGS flag for the preset
func (p Preset) PDFSettings() string {
	return "/" + string(NormalizePreset(string(p)))
}
