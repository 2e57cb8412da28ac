package joblog

import "regexp"

// HTMLLineBreak is the marker used by HTML log consumers.
const HTMLLineBreak = "<br/>"

// A run of carriage returns directly before a newline belongs to the line
// ending; otherwise "\r\r\n" would leave "\r\n" behind after one pass.
var lineEnding = regexp.MustCompile(`\r*\n`)

// Renderer normalizes line endings of every job log to LineBreak.
// Jobs stay separate and in provider order; content is never reordered or
// truncated. Rendering has no side effects and may be repeated freely.
type Renderer struct {
	LineBreak string
}

// Render applies the default renderer (LineBreak "\n").
func Render(s Set) Set {
	return Renderer{LineBreak: "\n"}.Render(s)
}

func (r Renderer) Render(s Set) Set {
	lb := r.LineBreak
	if lb == "" {
		lb = "\n"
	}

	text := make(map[Job]string, len(s.jobs))
	for _, j := range s.jobs {
		text[j] = lineEnding.ReplaceAllLiteralString(s.text[j], lb)
	}

	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	return Set{jobs: jobs, text: text}
}
