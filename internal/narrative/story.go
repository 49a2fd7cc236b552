package narrative

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"storyreel/internal/clip"
	"storyreel/internal/frames"
	"storyreel/internal/services/llm"
)

// ParseKind names the resolution tier that produced a story's instructions.
type ParseKind string

const (
	ParseStrict    ParseKind = "strict"
	ParseLines     ParseKind = "lines"
	ParseSynthetic ParseKind = "synthetic"
)

const storyPrompt = `You are a professional videographer and content planner who shoots Instagram-style short social videos.
You are given several user-supplied storyboard frames (frame) and their English descriptions (frame_desc).
Study the frames and descriptions and design one complete video story that links them together. Each frame will be used as the starting image of a clip of about 5 seconds.
Output a JSON array whose elements strictly follow this shape:
{
  "frame_index": <the 1-based index of the input frame>,
  "video_clip": "<an English prompt vividly describing the clip to generate, covering shot size, action, mood, camera movement, lighting, and a 5s duration hint>"
}
Output nothing else and do not use markdown. Return exactly one element per input frame_index.`

// ParseError reports why a story payload could not be read as strict JSON.
type ParseError struct {
	// NotArray is set when the payload is valid JSON of the wrong shape.
	NotArray bool
	Err      error
}

func (e *ParseError) Error() string {
	if e.NotArray {
		return "story payload is not a JSON array"
	}
	return fmt.Sprintf("story payload is not JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BuildStoryPrompt lists every frame and its description after the fixed
// story instructions. Inline images are named by media type only.
func BuildStoryPrompt(input []clip.Frame, descs []clip.Description) string {
	var b strings.Builder
	b.WriteString(storyPrompt)
	b.WriteString("\nInput frames:\n")
	for i, frame := range input {
		if i > 0 {
			b.WriteString("\n\n")
		}
		desc := ""
		if i < len(descs) {
			desc = descs[i].Text
		}
		fmt.Fprintf(&b, "Frame %d URL: %s\nFrame %d Desc: %s", i+1, frames.InlineLabel(frame.URL), i+1, desc)
	}
	return b.String()
}

type rawInstruction struct {
	FrameIndex json.RawMessage `json:"frame_index"`
	VideoClip  string          `json:"video_clip"`
}

// StrictParse decodes a JSON array of {frame_index, video_clip} objects,
// tolerating a surrounding Markdown code fence or prose around the array.
// Elements that are not objects or carry no usable index are skipped. An
// array cut out of prose must yield at least one instruction, otherwise the
// payload is treated as plain text.
func StrictParse(raw string) ([]clip.Instruction, error) {
	payload := strings.TrimSpace(llm.StripCodeFence(raw))
	if json.Valid([]byte(payload)) {
		return decodeInstructions([]byte(payload))
	}

	start := strings.Index(payload, "[")
	end := strings.LastIndex(payload, "]")
	if start < 0 || end <= start || !json.Valid([]byte(payload[start:end+1])) {
		return nil, &ParseError{Err: errors.New("invalid JSON")}
	}
	out, err := decodeInstructions([]byte(payload[start : end+1]))
	if err != nil || !hasInstruction(out) {
		return nil, &ParseError{Err: errors.New("no instructions in embedded array")}
	}
	return out, nil
}

func decodeInstructions(payload []byte) ([]clip.Instruction, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, &ParseError{NotArray: true, Err: err}
	}

	out := make([]clip.Instruction, 0, len(elems))
	for _, elem := range elems {
		var entry rawInstruction
		if err := json.Unmarshal(elem, &entry); err != nil {
			continue
		}
		index, ok := parseFrameIndex(entry.FrameIndex)
		if !ok {
			continue
		}
		out = append(out, clip.Instruction{FrameIndex: index, VideoClip: strings.TrimSpace(entry.VideoClip)})
	}
	return out, nil
}

func hasInstruction(list []clip.Instruction) bool {
	for _, in := range list {
		if in.VideoClip != "" {
			return true
		}
	}
	return false
}

func parseFrameIndex(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
	} else {
		text = string(raw)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || value != float64(int(value)) || value < 1 {
		return 0, false
	}
	return int(value), true
}

var enumerationMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*`)

// LineFallbackParse treats every non-empty line as one instruction, assigning
// indices by position after stripping enumeration markers.
func LineFallbackParse(raw string) []clip.Instruction {
	var out []clip.Instruction
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		text := strings.TrimSpace(enumerationMarker.ReplaceAllString(line, ""))
		out = append(out, clip.Instruction{FrameIndex: len(out) + 1, VideoClip: text})
	}
	return out
}

// SyntheticInstruction is the default instruction for a frame description.
func SyntheticInstruction(desc string) string {
	return "5s cinematic shot based on: " + desc
}

// SyntheticDefault builds one default instruction per description.
func SyntheticDefault(descs []clip.Description) []clip.Instruction {
	out := make([]clip.Instruction, len(descs))
	for i, d := range descs {
		out[i] = clip.Instruction{FrameIndex: i + 1, VideoClip: SyntheticInstruction(d.Text)}
	}
	return out
}

// ResolveInstructions returns exactly one non-empty instruction per
// description, in frame order, and the tier that supplied the model entries.
func ResolveInstructions(raw string, descs []clip.Description) ([]clip.Instruction, ParseKind) {
	kind := ParseStrict
	parsed, err := StrictParse(raw)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) && perr.NotArray {
			parsed, kind = nil, ParseSynthetic
		} else {
			parsed, kind = LineFallbackParse(raw), ParseLines
		}
	}
	if len(parsed) == 0 {
		parsed, kind = SyntheticDefault(descs), ParseSynthetic
	}

	out := make([]clip.Instruction, len(descs))
	for i, d := range descs {
		out[i] = clip.Instruction{FrameIndex: i + 1, VideoClip: SyntheticInstruction(d.Text)}
		for _, p := range parsed {
			if p.FrameIndex == i+1 && strings.TrimSpace(p.VideoClip) != "" {
				out[i].VideoClip = strings.TrimSpace(p.VideoClip)
				break
			}
		}
	}
	return out, kind
}
