package mcp

// ArgumentError indicates a tools/call whose arguments are missing or
// malformed. Handlers return it for input problems so the failure is never
// reported as an authentication or API error.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string { return e.Reason }
