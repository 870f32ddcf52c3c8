// Package tools registers the LinkedIn tool suite: person, company, job, and
// authentication tools. Every tool that reaches the LinkedIn API goes through
// the auth guard, so token lookup and status normalization are uniform across
// the suite.
package tools

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
	"linkedinmcp/internal/restli"
)

// maxPageCount caps collection page sizes at the API maximum.
const maxPageCount = 100

// Deps carries the collaborators every tool group needs.
type Deps struct {
	Manager *auth.Manager
	Guard   *auth.Guard
	API     *restli.Client
	Logger  *slog.Logger
}

// RegisterAll registers the complete tool suite on the registry.
func RegisterAll(reg *mcp.Registry, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	registerPersonTools(reg, deps)
	registerCompanyTools(reg, deps)
	registerJobTools(reg, deps)
	registerAuthTools(reg, deps)
}

// stringArg returns the named string argument, or fallback when absent.
func stringArg(args map[string]any, name, fallback string) string {
	if s, ok := args[name].(string); ok && s != "" {
		return s
	}
	return fallback
}

// intArg returns the named integer argument, or fallback when absent.
// JSON numbers decode as float64; string digits are tolerated.
func intArg(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// mapArg returns the named object argument, or nil when absent.
func mapArg(args map[string]any, name string) map[string]any {
	m, _ := args[name].(map[string]any)
	return m
}

// stringsArg returns the named array-of-strings argument.
func stringsArg(args map[string]any, name string) []string {
	raw, _ := args[name].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// pagingQuery builds standard start/count pagination parameters.
func pagingQuery(start, count int) url.Values {
	return url.Values{
		"start": {strconv.Itoa(start)},
		"count": {strconv.Itoa(min(count, maxPageCount))},
	}
}

// pagingPayload shapes a paging envelope for tool output, or nil.
func pagingPayload(p *restli.Paging) any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"start": p.Start,
		"count": p.Count,
		"total": p.Total,
	}
}

// searchQuery encodes a structured search-criteria object as a single Rest.li
// query parameter.
func searchQuery(criteria map[string]any) (url.Values, error) {
	encoded, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}
	return url.Values{"search": {string(encoded)}}, nil
}
