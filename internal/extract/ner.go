package extract

// EntityRecognizer finds organization names in short text samples such as
// headings and copyright lines. Implementations supplement the markup-based
// identity heuristics; the default recognizer finds nothing and extraction
// proceeds on heuristics alone.
type EntityRecognizer interface {
	Organizations(text string) []string
}

type nopRecognizer struct{}

func (nopRecognizer) Organizations(string) []string { return nil }

// NopRecognizer returns the no-op entity recognizer.
func NopRecognizer() EntityRecognizer { return nopRecognizer{} }
