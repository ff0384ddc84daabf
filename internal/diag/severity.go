package diag

// Severity ranks a mapped diagnostic. Map only produces SevError; the lower
// levels are for other tools that reuse the grouping.
type Severity uint8

const (
	SevNote Severity = iota
	SevWarning
	SevError
)

var severityWords = [...]string{SevNote: "note", SevWarning: "warning", SevError: "error"}

// String returns the word compilers print for s.
func (s Severity) String() string {
	if int(s) < len(severityWords) {
		return severityWords[s]
	}
	return "unknown"
}
