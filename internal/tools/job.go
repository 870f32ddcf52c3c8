package tools

import (
	"context"
	"net/url"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"linkedinmcp/internal/auth"
	"linkedinmcp/internal/mcp"
	"linkedinmcp/internal/restli"
)

type jobTools struct {
	deps Deps
}

func registerJobTools(reg *mcp.Registry, deps Deps) {
	t := &jobTools{deps: deps}

	reg.Register(mcpgo.NewTool("search_job_postings",
		mcpgo.WithDescription("Search job postings. Access is typically limited to postings from companies you manage."),
		mcpgo.WithObject("search_criteria",
			mcpgo.Required(),
			mcpgo.Description(`Structured search criteria, e.g. {"status": {"values": ["LISTED"]}}`),
		),
		mcpgo.WithNumber("start", mcpgo.Description("Starting index for pagination")),
		mcpgo.WithNumber("count", mcpgo.Description("Number of results to retrieve (max 100)")),
	), t.searchJobPostings)

	reg.Register(mcpgo.NewTool("get_company_job_postings",
		mcpgo.WithDescription("Get job postings for a specific company you manage."),
		mcpgo.WithString("company_urn",
			mcpgo.Required(),
			mcpgo.Description("Company URN, e.g. urn:li:organization:123"),
		),
		mcpgo.WithNumber("start", mcpgo.Description("Starting index for pagination")),
		mcpgo.WithNumber("count", mcpgo.Description("Number of results to retrieve (max 100)")),
	), t.getCompanyJobPostings)

	reg.Register(mcpgo.NewTool("create_job_posting",
		mcpgo.WithDescription("Create a job posting for a company. Requires company admin permissions and Job Posting API access."),
		mcpgo.WithString("company_urn",
			mcpgo.Required(),
			mcpgo.Description("Company URN, e.g. urn:li:organization:123"),
		),
		mcpgo.WithObject("job_data",
			mcpgo.Required(),
			mcpgo.Description(`Job posting data, e.g. {"title": "Software Engineer", "description": "...", "location": "San Francisco, CA"}`),
		),
	), t.createJobPosting)

	reg.Register(mcpgo.NewTool("get_job_applications",
		mcpgo.WithDescription("Get applications for a job posting. Requires company admin permissions and Job Posting API access."),
		mcpgo.WithString("job_posting_urn",
			mcpgo.Required(),
			mcpgo.Description("Job posting URN, e.g. urn:li:jobPosting:456"),
		),
		mcpgo.WithNumber("start", mcpgo.Description("Starting index for pagination")),
		mcpgo.WithNumber("count", mcpgo.Description("Number of applications to retrieve (max 100)")),
	), t.getJobApplications)

	reg.Register(mcpgo.NewTool("get_job_posting_analytics",
		mcpgo.WithDescription("Get analytics for a job posting. Requires company admin permissions and analytics API access."),
		mcpgo.WithString("job_posting_urn",
			mcpgo.Required(),
			mcpgo.Description("Job posting URN, e.g. urn:li:jobPosting:456"),
		),
	), t.getJobPostingAnalytics)

	reg.Register(mcpgo.NewTool("get_job_api_limitations",
		mcpgo.WithDescription("Describe the access limitations and permission requirements of the official LinkedIn Job APIs."),
	), t.getJobAPILimitations)
}

func (t *jobTools) searchJobPostings(ctx context.Context, args map[string]any) (any, error) {
	criteria := mapArg(args, "search_criteria")
	return t.findJobPostings(ctx, criteria, intArg(args, "start", 0), intArg(args, "count", 20))
}

func (t *jobTools) getCompanyJobPostings(ctx context.Context, args map[string]any) (any, error) {
	companyURN := stringArg(args, "company_urn", "")
	if companyURN == "" {
		return nil, &mcp.ArgumentError{Reason: "company_urn is required"}
	}

	criteria := map[string]any{
		"companyJobsFilterCriteria": map[string]any{
			"company": companyURN,
		},
		"status": map[string]any{"values": []any{"LISTED", "DRAFT"}},
	}
	return t.findJobPostings(ctx, criteria, intArg(args, "start", 0), intArg(args, "count", 20))
}

func (t *jobTools) findJobPostings(ctx context.Context, criteria map[string]any, start, count int) (any, error) {
	query, err := searchQuery(criteria)
	if err != nil {
		return nil, err
	}
	paging := pagingQuery(start, count)
	query.Set("start", paging.Get("start"))
	query.Set("count", paging.Get("count"))

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/jobPostings", func(ctx context.Context, token string) (*restli.CollectionResponse, error) {
		return t.deps.API.Finder(ctx, token, "/jobPostings", "search", query)
	})
	if err != nil {
		return nil, err
	}

	total := len(resp.Elements)
	if resp.Paging != nil {
		total = resp.Paging.Total
	}
	return map[string]any{
		"job_postings":  resp.Elements,
		"paging":        pagingPayload(resp.Paging),
		"total_results": total,
	}, nil
}

func (t *jobTools) createJobPosting(ctx context.Context, args map[string]any) (any, error) {
	companyURN := stringArg(args, "company_urn", "")
	if companyURN == "" {
		return nil, &mcp.ArgumentError{Reason: "company_urn is required"}
	}
	jobData := mapArg(args, "job_data")

	entity := map[string]any{
		"companyApplyUrl":         jobData["apply_url"],
		"description":             stringArg(jobData, "description", ""),
		"employmentStatus":        stringArg(jobData, "employment_status", "FULL_TIME"),
		"externalJobPostingId":    jobData["external_id"],
		"listedAt":                jobData["listed_at"],
		"jobPostingOperationType": "CREATE",
		"jobFunction":             map[string]any{"code": stringArg(jobData, "job_function", "eng")},
		"industry":                map[string]any{"code": stringArg(jobData, "industry", "4")},
		"title":                   stringArg(jobData, "title", ""),
		"partner":                 companyURN,
		"location":                stringArg(jobData, "location", ""),
		"workplaceTypes":          jobData["workplace_types"],
	}
	if entity["workplaceTypes"] == nil {
		entity["workplaceTypes"] = []any{"on_site"}
	}

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/jobPostings", func(ctx context.Context, token string) (*restli.CreateResponse, error) {
		return t.deps.API.Create(ctx, token, "/jobPostings", entity)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":         true,
		"job_posting_id":  resp.EntityID,
		"job_posting_urn": "urn:li:jobPosting:" + resp.EntityID,
		"company_urn":     companyURN,
	}, nil
}

func (t *jobTools) getJobApplications(ctx context.Context, args map[string]any) (any, error) {
	jobURN := stringArg(args, "job_posting_urn", "")
	if jobURN == "" {
		return nil, &mcp.ArgumentError{Reason: "job_posting_urn is required"}
	}

	query := pagingQuery(intArg(args, "start", 0), intArg(args, "count", 20))
	query.Set("jobPosting", jobURN)

	resp, err := auth.WithToken(ctx, t.deps.Guard, "/jobApplications", func(ctx context.Context, token string) (*restli.CollectionResponse, error) {
		return t.deps.API.Finder(ctx, token, "/jobApplications", "jobPosting", query)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"applications":    resp.Elements,
		"paging":          pagingPayload(resp.Paging),
		"job_posting_urn": jobURN,
	}, nil
}

func (t *jobTools) getJobPostingAnalytics(ctx context.Context, args map[string]any) (any, error) {
	jobURN := stringArg(args, "job_posting_urn", "")
	if jobURN == "" {
		return nil, &mcp.ArgumentError{Reason: "job_posting_urn is required"}
	}

	query := url.Values{"jobPosting": {jobURN}}
	resp, err := auth.WithToken(ctx, t.deps.Guard, "/jobPostingAnalytics", func(ctx context.Context, token string) (*restli.CollectionResponse, error) {
		return t.deps.API.Finder(ctx, token, "/jobPostingAnalytics", "jobPosting", query)
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"analytics":       resp.Elements,
		"job_posting_urn": jobURN,
	}, nil
}

func (t *jobTools) getJobAPILimitations(ctx context.Context, args map[string]any) (any, error) {
	return map[string]any{
		"api_limitations": map[string]any{
			"job_search":          "Limited to companies you manage or have API partnerships with",
			"job_details":         "Only accessible for your own company's job postings",
			"job_applications":    "Requires company admin permissions",
			"public_job_search":   "Not available through the official API",
			"job_recommendations": "Not available through the standard API",
		},
		"required_permissions": map[string]any{
			"job_posting_api": "Required for creating and managing job postings",
			"company_admin":   "Required for accessing company job data",
			"analytics_api":   "Required for job posting analytics",
		},
		"compliance": map[string]any{
			"official_api":       "Fully compliant with LinkedIn Terms of Service",
			"rate_limits":        "Apply according to your API product tier",
			"enterprise_options": "Contact LinkedIn for enterprise job data solutions",
		},
	}, nil
}
