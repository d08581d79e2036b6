package github

import (
	"context"
	"fmt"

	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type repoDetailsTool struct {
	service *Service
}

func (t *repoDetailsTool) Name() string { return "get_repo_details" }

func (t *repoDetailsTool) Description() string {
	return "Get comprehensive information about a GitHub repository"
}

func (t *repoDetailsTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"owner": {Type: "string", Description: "Repository owner (user or organization)"},
			"repo":  {Type: "string", Description: "Repository name"},
		},
		Required: []string{"owner", "repo"},
	}
}

func (t *repoDetailsTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "owner", "repo")
}

func (t *repoDetailsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.repoDetails(ctx, args["owner"].(string), args["repo"].(string))
}

type listIssuesTool struct {
	service *Service
}

func (t *listIssuesTool) Name() string { return "list_issues" }

func (t *listIssuesTool) Description() string {
	return "List issues in a repository, filtered by state"
}

func (t *listIssuesTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"owner": {Type: "string", Description: "Repository owner"},
			"repo":  {Type: "string", Description: "Repository name"},
			"state": {
				Type:        "string",
				Description: "Issue state filter",
				Enum:        []string{"open", "closed", "all"},
				Default:     "open",
			},
			"limit": {Type: "integer", Description: "Maximum number of issues to return", Default: 30},
		},
		Required: []string{"owner", "repo"},
	}
}

func (t *listIssuesTool) Validate(args map[string]interface{}) error {
	if err := requireStrings(args, "owner", "repo"); err != nil {
		return err
	}
	if state, present := args["state"].(string); present {
		switch state {
		case "open", "closed", "all":
		default:
			return fmt.Errorf("state must be one of open, closed, all")
		}
	}
	return nil
}

func (t *listIssuesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	state, _ := args["state"].(string)
	if state == "" {
		state = "open"
	}
	return t.service.listIssues(ctx,
		args["owner"].(string), args["repo"].(string), state, intArg(args, "limit", 30))
}

type createIssueTool struct {
	service *Service
}

func (t *createIssueTool) Name() string { return "create_issue" }

func (t *createIssueTool) Description() string {
	return "Create a new issue in a repository"
}

func (t *createIssueTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"owner":     {Type: "string", Description: "Repository owner"},
			"repo":      {Type: "string", Description: "Repository name"},
			"title":     {Type: "string", Description: "Issue title"},
			"body":      {Type: "string", Description: "Issue body"},
			"labels":    {Type: "array", Description: "Labels to apply"},
			"assignees": {Type: "array", Description: "Usernames to assign"},
		},
		Required: []string{"owner", "repo", "title"},
	}
}

func (t *createIssueTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "owner", "repo", "title")
}

func (t *createIssueTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	body, _ := args["body"].(string)
	return t.service.createIssue(ctx,
		args["owner"].(string), args["repo"].(string), args["title"].(string), body,
		stringSlice(args["labels"]), stringSlice(args["assignees"]))
}

type searchReposTool struct {
	service *Service
}

func (t *searchReposTool) Name() string { return "search_repositories" }

func (t *searchReposTool) Description() string {
	return "Search GitHub repositories by query"
}

func (t *searchReposTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"query": {Type: "string", Description: "Search query"},
			"sort": {
				Type:        "string",
				Description: "Sort field",
				Enum:        []string{"stars", "forks", "updated"},
				Default:     "stars",
			},
			"order": {
				Type:        "string",
				Description: "Sort order",
				Enum:        []string{"asc", "desc"},
				Default:     "desc",
			},
			"limit": {Type: "integer", Description: "Maximum number of results", Default: 10},
		},
		Required: []string{"query"},
	}
}

func (t *searchReposTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "query")
}

func (t *searchReposTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	sort, _ := args["sort"].(string)
	if sort == "" {
		sort = "stars"
	}
	order, _ := args["order"].(string)
	if order == "" {
		order = "desc"
	}
	return t.service.searchRepositories(ctx,
		args["query"].(string), sort, order, intArg(args, "limit", 10))
}

type userProfileTool struct {
	service *Service
}

func (t *userProfileTool) Name() string { return "get_user_profile" }

func (t *userProfileTool) Description() string {
	return "Get a GitHub user's public profile"
}

func (t *userProfileTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"username": {Type: "string", Description: "GitHub username"},
		},
		Required: []string{"username"},
	}
}

func (t *userProfileTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "username")
}

func (t *userProfileTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.userProfile(ctx, args["username"].(string))
}

func requireStrings(args map[string]interface{}, names ...string) error {
	for _, name := range names {
		if _, ok := args[name].(string); !ok {
			return fmt.Errorf("%s must be a string", name)
		}
	}
	return nil
}

func intArg(args map[string]interface{}, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
