package server

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// decodeImageData splits a data URL into its mime type and base64
// payload. Plain base64 without the data: prefix is assumed to be PNG.
func decodeImageData(data string) (string, string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", "", errors.New("no image data")
	}
	if !strings.HasPrefix(data, "data:") {
		return "image/png", data, nil
	}
	rest := strings.TrimPrefix(data, "data:")
	parts := strings.SplitN(rest, ",", 2)
	if len(parts) != 2 {
		return "", "", errors.New("malformed data url")
	}
	mimeType := strings.TrimSuffix(parts[0], ";base64")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return mimeType, parts[1], nil
}

func encodeImageData(mimeType, base64Data string) string {
	if base64Data == "" {
		return ""
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64Data)
}

const baseEditInstruction = "Edit the provided image. Preserve the main subject if present. " +
	"Apply the change succinctly; keep lighting/shadows consistent. Avoid unintended alterations."

type editExpansion struct {
	pattern *regexp.Regexp
	long    string
}

var editExpansions = buildEditExpansions(map[string]string{
	"rm":         "remove",
	"swap":       "replace with",
	"change":     "modify",
	"make":       "transform to",
	"color":      "change color to",
	"style":      "apply style",
	"size":       "resize to",
	"move":       "relocate",
	"blur":       "apply blur effect",
	"sharpen":    "apply sharpening",
	"brighten":   "increase brightness",
	"darken":     "decrease brightness",
	"saturate":   "increase saturation",
	"desaturate": "decrease saturation",
})

func buildEditExpansions(rules map[string]string) []editExpansion {
	expansions := make([]editExpansion, 0, len(rules))
	for short, long := range rules {
		expansions = append(expansions, editExpansion{
			pattern: regexp.MustCompile(`\b` + short + `\b`),
			long:    long,
		})
	}
	return expansions
}

// expandEditCommand turns a terse player edit command into the full
// instruction sent to the generator.
func expandEditCommand(editCommand string, hasSourceImage bool) string {
	expanded := baseEditInstruction
	if hasSourceImage {
		expanded += " Use the reference image for style, color palette, or composition guidance."
	}
	return expanded + " " + expandUserEdit(editCommand)
}

func expandUserEdit(editCommand string) string {
	expanded := strings.ToLower(editCommand)
	for _, rule := range editExpansions {
		expanded = rule.pattern.ReplaceAllString(expanded, rule.long)
	}
	return expanded
}
