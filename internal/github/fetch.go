package github

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/readme-widgets/internal/model"
)

type userResponse struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

type repoResponse struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	OpenIssues    int       `json:"open_issues_count"`
	Watchers      int       `json:"subscribers_count"`
	Topics        []string  `json:"topics"`
	Archived      bool      `json:"archived"`
	Fork          bool      `json:"fork"`
	Homepage      string    `json:"homepage"`
	DefaultBranch string    `json:"default_branch"`
	PushedAt      time.Time `json:"pushed_at"`
	License       *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
}

// FetchStats returns the aggregated profile statistics for username. Only a
// failure of the profile lookup itself is returned as an error; failed totals are
// reported through Warnings.
func (c *Client) FetchStats(ctx context.Context, username string) (model.AggregatedStats, error) {
	key := cacheKey(username)
	if s, ok := c.stats.Get(key); ok {
		return s, nil
	}

	v, err, shared := c.group.Do("stats:"+key, func() (any, error) {
		// Detached so one caller giving up does not fail the others waiting on it.
		s, err := c.fetchStats(context.WithoutCancel(ctx), username)
		if err != nil {
			return nil, err
		}
		c.stats.AddFor(key, s, c.snapshotTTL(s.Warnings))
		return s, nil
	})
	if err != nil {
		return model.AggregatedStats{}, err
	}
	if shared {
		c.logger.Debug("stats fetch shared", "username", username)
	}
	return v.(model.AggregatedStats), nil
}

func (c *Client) fetchStats(ctx context.Context, username string) (model.AggregatedStats, error) {
	var user userResponse
	if _, err := c.get(ctx, call{
		endpoint: "users",
		resource: "user",
		id:       username,
		path:     "/users/" + url.PathEscape(username),
	}, &user); err != nil {
		return model.AggregatedStats{}, err
	}

	s := model.AggregatedStats{
		Username:       user.Login,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		PublicRepos:    user.PublicRepos,
		Followers:      user.Followers,
		AccountCreated: user.CreatedAt,
	}
	if s.Username == "" {
		s.Username = username
	}

	var (
		stars, forks int
		warnings     = make(chan model.Warning, 8)
		g            errgroup.Group
	)
	g.SetLimit(c.concurrency)

	g.Go(func() error {
		repos, _, err := c.listRepos(ctx, username)
		if err != nil {
			warnings <- model.Warning{Field: "totalStars", Kind: degrade(err)}
			return nil
		}
		for _, r := range repos {
			stars += r.Stars
			forks += r.Forks
		}
		return nil
	})

	since := c.clock.Now().AddDate(-1, 0, 0).Format("2006-01-02")
	searches := []struct {
		field    string
		endpoint string
		query    string
		dst      *int
	}{
		{"totalCommits", "search_commits", "author:" + username, &s.TotalCommits},
		{"totalPRs", "search_issues", "author:" + username + " type:pr", &s.TotalPRs},
		{"mergedPRs", "search_issues", "author:" + username + " type:pr is:merged", &s.MergedPRs},
		{"totalIssues", "search_issues", "author:" + username + " type:issue", &s.TotalIssues},
		{"contributedTo", "search_issues",
			"author:" + username + " type:pr is:merged -user:" + username + " created:>" + since, &s.ContributedTo},
	}
	for _, q := range searches {
		g.Go(func() error {
			n, err := c.searchCount(ctx, q.endpoint, q.query)
			if err != nil {
				warnings <- model.Warning{Field: q.field, Kind: degrade(err)}
				return nil
			}
			*q.dst = n
			return nil
		})
	}

	// Secondary fetches never return errors, so Wait only synchronizes.
	_ = g.Wait()
	close(warnings)
	for w := range warnings {
		s.Warnings = append(s.Warnings, w)
	}
	sortWarnings(s.Warnings)

	s.TotalStars = stars
	s.TotalForks = forks
	s.FetchedAt = c.clock.Now()
	if len(s.Warnings) > 0 {
		c.logger.Warn("stats degraded", "username", username, "warnings", len(s.Warnings))
	}
	return s, nil
}

func (c *Client) searchCount(ctx context.Context, endpoint, query string) (int, error) {
	path := "/search/issues"
	if endpoint == "search_commits" {
		path = "/search/commits"
	}
	var out searchResponse
	_, err := c.get(ctx, call{
		endpoint: endpoint,
		resource: "search",
		id:       query,
		path:     path + "?per_page=1&q=" + url.QueryEscape(query),
	}, &out)
	return out.TotalCount, err
}

// listRepos pages through the owner's public repositories, stopping at maxRepos.
// truncated reports whether more repositories exist than were returned.
func (c *Client) listRepos(ctx context.Context, username string) (repos []repoResponse, truncated bool, err error) {
	next := "/users/" + url.PathEscape(username) + "/repos?type=owner&sort=pushed&per_page=100"
	for next != "" {
		var page []repoResponse
		h, err := c.get(ctx, call{endpoint: "repos", resource: "user", id: username, path: next}, &page)
		if err != nil {
			return nil, false, err
		}
		for _, r := range page {
			if len(repos) == c.maxRepos {
				return repos, true, nil
			}
			repos = append(repos, r)
		}
		next = nextLink(h.Get("Link"))
		if next != "" && len(repos) == c.maxRepos {
			return repos, true, nil
		}
	}
	return repos, false, nil
}

// FetchLanguages sums language bytes across username's non-fork repositories.
func (c *Client) FetchLanguages(ctx context.Context, username string) (model.LanguageBytes, error) {
	key := cacheKey(username)
	if l, ok := c.languages.Get(key); ok {
		return l, nil
	}

	v, err, _ := c.group.Do("languages:"+key, func() (any, error) {
		l, err := c.fetchLanguages(context.WithoutCancel(ctx), username)
		if err != nil {
			return nil, err
		}
		c.languages.AddFor(key, l, c.snapshotTTL(l.Warnings))
		return l, nil
	})
	if err != nil {
		return model.LanguageBytes{}, err
	}
	return v.(model.LanguageBytes), nil
}

func (c *Client) fetchLanguages(ctx context.Context, username string) (model.LanguageBytes, error) {
	repos, truncated, err := c.listRepos(ctx, username)
	if err != nil {
		return model.LanguageBytes{}, err
	}

	out := model.LanguageBytes{Username: username, Bytes: map[string]int64{}}
	if truncated {
		out.Warnings = append(out.Warnings, model.Warning{Field: "languages", Kind: model.WarnTruncated})
	}

	var sources []repoResponse
	for _, r := range repos {
		if !r.Fork {
			sources = append(sources, r)
		}
	}
	out.Repos = len(sources)

	perRepo := make([]map[string]int64, len(sources))
	failed := make([]error, len(sources))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, r := range sources {
		g.Go(func() error {
			owner := r.Owner.Login
			if owner == "" {
				owner = username
			}
			var langs map[string]int64
			_, err := c.get(ctx, call{
				endpoint: "languages",
				resource: "repository",
				id:       owner + "/" + r.Name,
				path:     fmt.Sprintf("/repos/%s/%s/languages", url.PathEscape(owner), url.PathEscape(r.Name)),
			}, &langs)
			perRepo[i], failed[i] = langs, err
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	for i, langs := range perRepo {
		if failed[i] != nil {
			if firstErr == nil {
				firstErr = failed[i]
			}
			continue
		}
		for lang, n := range langs {
			if n > 0 {
				out.Bytes[lang] += n
			}
		}
	}
	if firstErr != nil {
		out.Warnings = append(out.Warnings, model.Warning{Field: "languages", Kind: degrade(firstErr)})
	}
	out.FetchedAt = c.clock.Now()
	return out, nil
}

// FetchRepo returns one repository's metadata.
func (c *Client) FetchRepo(ctx context.Context, owner, repo string) (model.RepoMetadata, error) {
	key := cacheKey(owner, repo)
	if r, ok := c.repos.Get(key); ok {
		return r, nil
	}

	v, err, _ := c.group.Do("repo:"+key, func() (any, error) {
		var r repoResponse
		_, err := c.get(context.WithoutCancel(ctx), call{
			endpoint: "repo",
			resource: "repository",
			id:       owner + "/" + repo,
			path:     fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo)),
		}, &r)
		if err != nil {
			return nil, err
		}
		meta := model.RepoMetadata{
			Owner:         r.Owner.Login,
			Name:          r.Name,
			Description:   r.Description,
			Language:      r.Language,
			Stars:         r.Stars,
			Forks:         r.Forks,
			OpenIssues:    r.OpenIssues,
			Watchers:      r.Watchers,
			Topics:        r.Topics,
			Archived:      r.Archived,
			Fork:          r.Fork,
			Homepage:      r.Homepage,
			DefaultBranch: r.DefaultBranch,
			PushedAt:      r.PushedAt,
			FetchedAt:     c.clock.Now(),
		}
		if r.License != nil {
			meta.License = r.License.SPDXID
		}
		if meta.Owner == "" {
			meta.Owner = owner
		}
		if meta.Name == "" {
			meta.Name = repo
		}
		c.repos.Add(key, meta)
		return meta, nil
	})
	if err != nil {
		return model.RepoMetadata{}, err
	}
	return v.(model.RepoMetadata), nil
}

// snapshotTTL returns the cache lifetime for a snapshot; 0 means the cache
// default. Failed sub-fetches are retried after DegradedTTL.
func (c *Client) snapshotTTL(warnings []model.Warning) time.Duration {
	for _, w := range warnings {
		if w.Kind != model.WarnTruncated {
			return c.degradedTTL
		}
	}
	return 0
}

// sortWarnings orders warnings by field so snapshots compare deterministically.
func sortWarnings(ws []model.Warning) {
	slices.SortFunc(ws, func(a, b model.Warning) int { return strings.Compare(a.Field, b.Field) })
}
