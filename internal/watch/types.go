package watch

// Snapshot is one observed clipboard state. The x/clipboard bindings only
// expose plain text on this platform; HTML stays empty at capture time and
// is populated by callers that have richer sources.
type Snapshot struct {
	HTML      string
	Plain     string
	SourceApp string
}
