// Package github wraps a handful of GitHub REST endpoints as synchronous
// tools. Every handler is a single remote call plus response reshaping;
// nothing here is long-running.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/liliang-cn/toolbridge/pkg/config"
	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/remote"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type Service struct {
	client *remote.Client
	logger *slog.Logger
}

func New(cfg config.GitHubConfig) (*Service, error) {
	headers := map[string]string{
		"Accept": "application/vnd.github+json",
	}
	client, err := remote.New(remote.Config{
		BaseURL:   cfg.BaseURL,
		AuthValue: token(cfg.Token),
		Headers:   headers,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		client: client,
		logger: log.WithComponent("github"),
	}, nil
}

func token(t string) string {
	if t == "" {
		return ""
	}
	return "Bearer " + t
}

func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&repoDetailsTool{service: s},
		&listIssuesTool{service: s},
		&createIssueTool{service: s},
		&searchReposTool{service: s},
		&userProfileTool{service: s},
	}
}

type wireRepo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description *string  `json:"description"`
	Private     bool     `json:"private"`
	Fork        bool     `json:"fork"`
	Archived    bool     `json:"archived"`
	HTMLURL     string   `json:"html_url"`
	CloneURL    string   `json:"clone_url"`
	Homepage    *string  `json:"homepage"`
	Stars       int      `json:"stargazers_count"`
	Watchers    int      `json:"watchers_count"`
	Forks       int      `json:"forks_count"`
	OpenIssues  int      `json:"open_issues_count"`
	SizeKB      int64    `json:"size"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
	Default     string   `json:"default_branch"`
	License     *struct {
		Name string `json:"name"`
	} `json:"license"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	PushedAt  string `json:"pushed_at"`
	Owner     struct {
		Login     string `json:"login"`
		Type      string `json:"type"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
}

type wireIssue struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	State     string  `json:"state"`
	Body      *string `json:"body"`
	HTMLURL   string  `json:"html_url"`
	Comments  int     `json:"comments"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

type wireUser struct {
	Login       string  `json:"login"`
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	Bio         *string `json:"bio"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	HTMLURL     string  `json:"html_url"`
	AvatarURL   string  `json:"avatar_url"`
	CreatedAt   string  `json:"created_at"`
}

func (s *Service) repoDetails(ctx context.Context, owner, repo string) (map[string]interface{}, error) {
	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo),
	})
	if err != nil {
		return nil, err
	}

	var r wireRepo
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed repository response: %v", err)}
	}

	license := ""
	if r.License != nil {
		license = r.License.Name
	}

	return map[string]interface{}{
		"repository": map[string]interface{}{
			"basic_info": map[string]interface{}{
				"id":          r.ID,
				"name":        r.Name,
				"full_name":   r.FullName,
				"description": deref(r.Description),
				"private":     r.Private,
				"fork":        r.Fork,
				"archived":    r.Archived,
			},
			"urls": map[string]interface{}{
				"html_url":  r.HTMLURL,
				"clone_url": r.CloneURL,
				"homepage":  deref(r.Homepage),
			},
			"statistics": map[string]interface{}{
				"stars":       r.Stars,
				"watchers":    r.Watchers,
				"forks":       r.Forks,
				"open_issues": r.OpenIssues,
				"size_kb":     r.SizeKB,
			},
			"details": map[string]interface{}{
				"language":       deref(r.Language),
				"default_branch": r.Default,
				"topics":         r.Topics,
				"license":        license,
			},
			"timestamps": map[string]interface{}{
				"created_at": r.CreatedAt,
				"updated_at": r.UpdatedAt,
				"pushed_at":  r.PushedAt,
			},
			"owner": map[string]interface{}{
				"login":      r.Owner.Login,
				"type":       r.Owner.Type,
				"avatar_url": r.Owner.AvatarURL,
			},
		},
	}, nil
}

func (s *Service) listIssues(ctx context.Context, owner, repo, state string, limit int) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("state", state)
	params.Set("per_page", strconv.Itoa(limit))

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/issues",
		Params:   params,
	})
	if err != nil {
		return nil, err
	}

	var wire []wireIssue
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed issues response: %v", err)}
	}

	issues := make([]map[string]interface{}, 0, len(wire))
	for _, i := range wire {
		labels := make([]string, 0, len(i.Labels))
		for _, l := range i.Labels {
			labels = append(labels, l.Name)
		}
		issues = append(issues, map[string]interface{}{
			"number":     i.Number,
			"title":      i.Title,
			"state":      i.State,
			"author":     i.User.Login,
			"labels":     labels,
			"comments":   i.Comments,
			"html_url":   i.HTMLURL,
			"created_at": i.CreatedAt,
			"updated_at": i.UpdatedAt,
		})
	}

	return map[string]interface{}{
		"issues": issues,
		"summary": map[string]interface{}{
			"repository":   owner + "/" + repo,
			"state_filter": state,
			"count":        len(issues),
		},
	}, nil
}

func (s *Service) createIssue(ctx context.Context, owner, repo, title, body string, labels, assignees []string) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"title": title,
	}
	if body != "" {
		payload["body"] = body
	}
	if len(labels) > 0 {
		payload["labels"] = labels
	}
	if len(assignees) > 0 {
		payload["assignees"] = assignees
	}

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/issues",
		Method:   "POST",
		Body:     payload,
	})
	if err != nil {
		return nil, err
	}

	var issue wireIssue
	if err := json.Unmarshal(raw, &issue); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed issue response: %v", err)}
	}

	s.logger.Info("issue created", "repo", owner+"/"+repo, "number", issue.Number)

	return map[string]interface{}{
		"issue": map[string]interface{}{
			"number":     issue.Number,
			"title":      issue.Title,
			"state":      issue.State,
			"html_url":   issue.HTMLURL,
			"created_at": issue.CreatedAt,
		},
	}, nil
}

func (s *Service) searchRepositories(ctx context.Context, query, sort, order string, limit int) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", sort)
	params.Set("order", order)
	params.Set("per_page", strconv.Itoa(limit))

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/search/repositories",
		Params:   params,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		TotalCount int        `json:"total_count"`
		Items      []wireRepo `json:"items"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed search response: %v", err)}
	}

	repos := make([]map[string]interface{}, 0, len(resp.Items))
	for _, r := range resp.Items {
		repos = append(repos, map[string]interface{}{
			"full_name":   r.FullName,
			"description": deref(r.Description),
			"language":    deref(r.Language),
			"stars":       r.Stars,
			"forks":       r.Forks,
			"html_url":    r.HTMLURL,
		})
	}

	return map[string]interface{}{
		"repositories": repos,
		"summary": map[string]interface{}{
			"query":         query,
			"total_matches": resp.TotalCount,
			"returned":      len(repos),
		},
	}, nil
}

func (s *Service) userProfile(ctx context.Context, username string) (map[string]interface{}, error) {
	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/users/" + url.PathEscape(username),
	})
	if err != nil {
		return nil, err
	}

	var u wireUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed user response: %v", err)}
	}

	return map[string]interface{}{
		"user": map[string]interface{}{
			"login":        u.Login,
			"name":         deref(u.Name),
			"company":      deref(u.Company),
			"location":     deref(u.Location),
			"bio":          deref(u.Bio),
			"public_repos": u.PublicRepos,
			"followers":    u.Followers,
			"following":    u.Following,
			"html_url":     u.HTMLURL,
			"avatar_url":   u.AvatarURL,
			"created_at":   u.CreatedAt,
		},
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
