package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
	"linkedinmcp/internal/restli"
)

// newTestDeps wires a full tool dependency set against a local HTTP server.
// The manager is seeded so API-bound tools pass the guard.
func newTestDeps(t *testing.T, handler http.HandlerFunc) Deps {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	manager, err := auth.New(auth.Credentials{}, auth.WithSeedToken("test-token"))
	if err != nil {
		t.Fatalf("auth.New() failed: %v", err)
	}

	return Deps{
		Manager: manager,
		Guard:   auth.NewGuard(manager, nil),
		API:     restli.New(restli.WithBaseURL(srv.URL), restli.WithMaxTries(1)),
	}
}

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *mcp.Registry {
	t.Helper()
	reg := mcp.NewRegistry()
	RegisterAll(reg, newTestDeps(t, handler))
	return reg
}

func callTool(t *testing.T, reg *mcp.Registry, name string, args map[string]any) (any, error) {
	t.Helper()
	tool, ok := reg.Get(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return tool.Handler(context.Background(), args)
}

func TestRegisterAllToolSet(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {})

	want := []string{
		// person
		"get_current_user_profile",
		"get_user_profile_with_openid",
		"get_oauth_authorization_url",
		"exchange_oauth_code",
		"get_token_info",
		// company
		"search_companies",
		"get_organization_info",
		"get_company_posts",
		"create_company_post",
		"get_managed_companies",
		// job
		"search_job_postings",
		"get_company_job_postings",
		"create_job_posting",
		"get_job_applications",
		"get_job_posting_analytics",
		"get_job_api_limitations",
		// auth
		"get_authentication_status",
		"refresh_access_token",
	}

	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("registered %d tools, want %d: %v", len(got), len(want), got)
	}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("tool %s not registered", name)
		}
	}

	// Every listed tool must have a dispatchable definition under the same name
	for _, def := range reg.List() {
		tool, ok := reg.Get(def.Name)
		if !ok || tool.Handler == nil {
			t.Errorf("listed tool %s is not dispatchable", def.Name)
		}
		if def.Description == "" {
			t.Errorf("tool %s has no description", def.Name)
		}
	}
}

func TestGetCurrentUserProfileShapesPayload(t *testing.T) {
	var gotPath string
	var gotFields string
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFields = r.URL.Query().Get("fields")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "abc123",
			"firstName": {"localized": {"en_US": "Jane"}, "preferredLocale": {"language": "en", "country": "US"}},
			"lastName": {"localized": {"en_US": "Doe"}}
		}`))
	})

	result, err := callTool(t, reg, "get_current_user_profile", nil)
	if err != nil {
		t.Fatalf("tool failed: %v", err)
	}

	if gotPath != "/me" {
		t.Errorf("request path = %q, want /me", gotPath)
	}
	if gotFields != "id,firstName,lastName,headline,summary" {
		t.Errorf("fields = %q, want defaults", gotFields)
	}

	payload, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T, want map", result)
	}
	if payload["first_name"] != "Jane" || payload["last_name"] != "Doe" {
		t.Errorf("name = %v %v, want Jane Doe", payload["first_name"], payload["last_name"])
	}
	if payload["raw_data"] == nil {
		t.Error("raw_data missing from payload")
	}
}

func TestAPIToolFailsWithoutAuthentication(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unauthenticated tool call reached the API")
	}))
	t.Cleanup(srv.Close)

	// Credentials but no token: the guard must reject before any API call
	manager, err := auth.New(auth.Credentials{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("auth.New() failed: %v", err)
	}
	reg := mcp.NewRegistry()
	RegisterAll(reg, Deps{
		Manager: manager,
		Guard:   auth.NewGuard(manager, nil),
		API:     restli.New(restli.WithBaseURL(srv.URL), restli.WithMaxTries(1)),
	})

	_, err = callTool(t, reg, "get_current_user_profile", nil)
	var authErr *auth.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("tool error = %v, want AuthError", err)
	}
}

func TestMissingRequiredArgumentIsNotAuthFailure(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("tool call with missing arguments reached the API")
	})

	tests := []struct {
		tool string
		want string
	}{
		{tool: "create_company_post", want: "company_urn is required"},
		{tool: "get_organization_info", want: "organization_id is required"},
		{tool: "get_job_applications", want: "job_posting_urn is required"},
		{tool: "exchange_oauth_code", want: "authorization_code is required"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			_, err := callTool(t, reg, tt.tool, nil)

			var argErr *mcp.ArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("tool error = %v, want ArgumentError", err)
			}
			if argErr.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", argErr.Reason, tt.want)
			}
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				t.Error("missing argument reported as authentication failure")
			}
		})
	}
}

func TestAPIToolSurfacesNonSuccessStatus(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := callTool(t, reg, "get_user_profile_with_openid", nil)
	var apiErr *auth.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("tool error = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("APIError.Status = %d, want 403", apiErr.Status)
	}
}

func TestGetManagedCompaniesFinder(t *testing.T) {
	var gotQuery url.Values
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements": [{"organization": "urn:li:organization:123"}], "paging": {"start": 0, "count": 10, "total": 1}}`))
	})

	result, err := callTool(t, reg, "get_managed_companies", nil)
	if err != nil {
		t.Fatalf("tool failed: %v", err)
	}

	if gotQuery.Get("q") != "roleAssignee" {
		t.Errorf("q = %q, want roleAssignee", gotQuery.Get("q"))
	}
	if gotQuery.Get("role") != "ADMINISTRATOR" {
		t.Errorf("role = %q, want ADMINISTRATOR", gotQuery.Get("role"))
	}
	if gotQuery.Get("state") != "APPROVED" {
		t.Errorf("state = %q, want APPROVED", gotQuery.Get("state"))
	}

	payload, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T, want map", result)
	}
	companies, ok := payload["managed_companies"].([]map[string]any)
	if !ok || len(companies) != 1 {
		t.Errorf("managed_companies = %v, want one element", payload["managed_companies"])
	}
}

func TestCreateCompanyPost(t *testing.T) {
	var gotBody map[string]any
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := jsonDecode(r, &gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("X-Restli-Id", "urn:li:share:42")
		w.WriteHeader(http.StatusCreated)
	})

	result, err := callTool(t, reg, "create_company_post", map[string]any{
		"company_urn": "urn:li:organization:123",
		"post_content": map[string]any{
			"commentary": "Hello from the test suite",
		},
	})
	if err != nil {
		t.Fatalf("tool failed: %v", err)
	}

	if gotBody["author"] != "urn:li:organization:123" {
		t.Errorf("author = %v, want urn:li:organization:123", gotBody["author"])
	}
	if gotBody["commentary"] != "Hello from the test suite" {
		t.Errorf("commentary = %v, want test text", gotBody["commentary"])
	}
	if gotBody["lifecycleState"] != "PUBLISHED" {
		t.Errorf("lifecycleState = %v, want PUBLISHED", gotBody["lifecycleState"])
	}
	if gotBody["visibility"] != "PUBLIC" {
		t.Errorf("visibility = %v, want PUBLIC default", gotBody["visibility"])
	}

	payload, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T, want map", result)
	}
	if payload["post_id"] != "urn:li:share:42" {
		t.Errorf("post_id = %v, want urn:li:share:42", payload["post_id"])
	}
}

func TestGetJobAPILimitationsIsLocal(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("get_job_api_limitations reached the API")
	})

	result, err := callTool(t, reg, "get_job_api_limitations", nil)
	if err != nil {
		t.Fatalf("tool failed: %v", err)
	}
	if _, ok := result.(map[string]any); !ok {
		t.Fatalf("result type = %T, want map", result)
	}
}

func TestHelperArgCoercion(t *testing.T) {
	args := map[string]any{
		"count":    float64(25),
		"start":    "10",
		"fields":   "id",
		"scopes":   []any{"openid", "profile", 7},
		"criteria": map[string]any{"keyword": "golang"},
	}

	if got := intArg(args, "count", 0); got != 25 {
		t.Errorf("intArg(count) = %d, want 25", got)
	}
	if got := intArg(args, "start", 0); got != 10 {
		t.Errorf("intArg(start) = %d, want 10", got)
	}
	if got := intArg(args, "missing", 5); got != 5 {
		t.Errorf("intArg(missing) = %d, want fallback 5", got)
	}
	if got := stringArg(args, "fields", "x"); got != "id" {
		t.Errorf("stringArg(fields) = %q, want id", got)
	}
	if got := stringsArg(args, "scopes"); !slices.Equal(got, []string{"openid", "profile"}) {
		t.Errorf("stringsArg(scopes) = %v, want non-string entries dropped", got)
	}
	if got := mapArg(args, "criteria"); got["keyword"] != "golang" {
		t.Errorf("mapArg(criteria) = %v", got)
	}
}

func TestPagingQueryCapsCount(t *testing.T) {
	q := pagingQuery(0, 500)
	if got := q.Get("count"); got != "100" {
		t.Errorf("count = %s, want capped at 100", got)
	}
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
