package tools

import (
	"context"
	"net/url"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
	"linkedinmcp/internal/restli"
)

type companyTools struct {
	deps Deps
}

func registerCompanyTools(reg *mcp.Registry, deps Deps) {
	t := &companyTools{deps: deps}

	reg.Register(mcpgo.NewTool("search_companies",
		mcpgo.WithDescription("Search organizations. Access is limited to companies the authenticated member manages or has API permissions for."),
		mcpgo.WithObject("search_criteria",
			mcpgo.Required(),
			mcpgo.Description(`Structured search criteria, e.g. {"status": {"values": ["ACTIVE"]}}`),
		),
		mcpgo.WithString("fields",
			mcpgo.Description("Comma-separated fields to retrieve"),
		),
	), t.searchCompanies)

	reg.Register(mcpgo.NewTool("get_organization_info",
		mcpgo.WithDescription("Get detailed information about a specific organization. Access is typically limited to organizations you manage."),
		mcpgo.WithString("organization_id",
			mcpgo.Required(),
			mcpgo.Description("Numeric organization identifier"),
		),
		mcpgo.WithString("fields",
			mcpgo.Description("Comma-separated fields to retrieve"),
		),
	), t.getOrganizationInfo)

	reg.Register(mcpgo.NewTool("get_company_posts",
		mcpgo.WithDescription("Get posts authored by a company page. Requires permissions for the company's social content."),
		mcpgo.WithString("company_urn",
			mcpgo.Required(),
			mcpgo.Description("Company URN, e.g. urn:li:organization:123"),
		),
		mcpgo.WithNumber("start", mcpgo.Description("Starting index for pagination")),
		mcpgo.WithNumber("count", mcpgo.Description("Number of posts to retrieve (max 100)")),
	), t.getCompanyPosts)

	reg.Register(mcpgo.NewTool("create_company_post",
		mcpgo.WithDescription("Create a post on behalf of a company. Requires the w_member_social scope and company admin permissions."),
		mcpgo.WithString("company_urn",
			mcpgo.Required(),
			mcpgo.Description("Company URN, e.g. urn:li:organization:123"),
		),
		mcpgo.WithObject("post_content",
			mcpgo.Required(),
			mcpgo.Description(`Post content, e.g. {"commentary": "text", "visibility": "PUBLIC"}`),
		),
	), t.createCompanyPost)

	reg.Register(mcpgo.NewTool("get_managed_companies",
		mcpgo.WithDescription("List organizations where the authenticated member holds an administrator role."),
	), t.getManagedCompanies)
}

func (t *companyTools) searchCompanies(ctx context.Context, args map[string]any) (any, error) {
	criteria := mapArg(args, "search_criteria")

	query, err := searchQuery(criteria)
	if err != nil {
		return nil, err
	}
	if fields := stringArg(args, "fields", ""); fields != "" {
		query.Set("fields", fields)
	}

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/organizations", func(ctx context.Context, token string) (*restli.CollectionResponse, error) {
		return t.deps.API.Finder(ctx, token, "/organizations", "search", query)
	})
	if err != nil {
		return nil, err
	}

	total := len(resp.Elements)
	if resp.Paging != nil {
		total = resp.Paging.Total
	}
	return map[string]any{
		"companies":     resp.Elements,
		"paging":        pagingPayload(resp.Paging),
		"total_results": total,
	}, nil
}

func (t *companyTools) getOrganizationInfo(ctx context.Context, args map[string]any) (any, error) {
	orgID := stringArg(args, "organization_id", "")
	if orgID == "" {
		return nil, &mcp.ArgumentError{Reason: "organization_id is required"}
	}

	query := url.Values{}
	if fields := stringArg(args, "fields", ""); fields != "" {
		query.Set("fields", fields)
	}

	resource := "/organizations/" + orgID
	resp, err := auth.WithToken(ctx, t.deps.Guard, resource, func(ctx context.Context, token string) (*restli.Response, error) {
		return t.deps.API.Get(ctx, token, resource, query)
	})
	if err != nil {
		return nil, err
	}

	name, _ := restli.LocalizedString(resp.Entity["localizedName"])
	if name == "" {
		name, _ = restli.LocalizedString(resp.Entity["name"])
	}
	return map[string]any{
		"organization_id":  orgID,
		"organization_urn": "urn:li:organization:" + orgID,
		"name":             name,
		"raw_data":         resp.Entity,
	}, nil
}

func (t *companyTools) getCompanyPosts(ctx context.Context, args map[string]any) (any, error) {
	companyURN := stringArg(args, "company_urn", "")
	if companyURN == "" {
		return nil, &mcp.ArgumentError{Reason: "company_urn is required"}
	}

	query := pagingQuery(intArg(args, "start", 0), intArg(args, "count", 20))
	query.Set("author", companyURN)

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/posts", func(ctx context.Context, token string) (*restli.CollectionResponse, error) {
		return t.deps.API.GetAll(ctx, token, "/posts", query)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"posts":       resp.Elements,
		"paging":      pagingPayload(resp.Paging),
		"company_urn": companyURN,
	}, nil
}

func (t *companyTools) createCompanyPost(ctx context.Context, args map[string]any) (any, error) {
	companyURN := stringArg(args, "company_urn", "")
	if companyURN == "" {
		return nil, &mcp.ArgumentError{Reason: "company_urn is required"}
	}
	content := mapArg(args, "post_content")

	entity := map[string]any{
		"author":     companyURN,
		"commentary": content["commentary"],
		"visibility": stringArg(content, "visibility", "PUBLIC"),
		"distribution": map[string]any{
			"feedDistribution": "MAIN_FEED",
		},
		"lifecycleState": "PUBLISHED",
	}

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/posts", func(ctx context.Context, token string) (*restli.CreateResponse, error) {
		return t.deps.API.Create(ctx, token, "/posts", entity)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"post_id":     resp.EntityID,
		"company_urn": companyURN,
	}, nil
}

func (t *companyTools) getManagedCompanies(ctx context.Context, args map[string]any) (any, error) {
	query := url.Values{"role": {"ADMINISTRATOR"}, "state": {"APPROVED"}}

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/organizationAuthorizations", func(ctx context.Context, token string) (*restli.CollectionResponse, error) {
		return t.deps.API.Finder(ctx, token, "/organizationAuthorizations", "roleAssignee", query)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"managed_companies": resp.Elements,
		"paging":            pagingPayload(resp.Paging),
	}, nil
}
