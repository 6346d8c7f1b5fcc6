package model

import "time"

// WarningKind classifies why a field of an upstream snapshot is missing.
type WarningKind string

const (
	WarnRateLimited WarningKind = "rate_limited"
	WarnUnavailable WarningKind = "unavailable"
	WarnNotFound    WarningKind = "not_found"
	WarnTruncated   WarningKind = "truncated"
)

// Warning marks a field that was zeroed because its sub-fetch failed. A zero
// with a Warning is "unknown", not a real zero.
type Warning struct {
	Field string      `json:"field"`
	Kind  WarningKind `json:"kind"`
}

// AggregatedStats is a read-only snapshot of a GitHub user's activity.
type AggregatedStats struct {
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatarUrl"`
	PublicRepos    int       `json:"publicRepos"`
	Followers      int       `json:"followers"`
	TotalStars     int       `json:"totalStars"`
	TotalForks     int       `json:"totalForks"`
	TotalCommits   int       `json:"totalCommits"`
	TotalPRs       int       `json:"totalPRs"`
	MergedPRs      int       `json:"mergedPRs"`
	TotalIssues    int       `json:"totalIssues"`
	ContributedTo  int       `json:"contributedTo"`
	AccountCreated time.Time `json:"accountCreated"`
	FetchedAt      time.Time `json:"fetchedAt"`
	Warnings       []Warning `json:"warnings,omitempty"`
}

// Degraded reports whether field was zeroed by a failed sub-fetch.
func (s AggregatedStats) Degraded(field string) bool {
	return hasWarning(s.Warnings, field)
}

// LanguageBytes is a user's language byte totals summed across owned, non-fork repos.
type LanguageBytes struct {
	Username  string           `json:"username"`
	Bytes     map[string]int64 `json:"bytes"`
	Repos     int              `json:"repos"` // repos whose languages were counted
	FetchedAt time.Time        `json:"fetchedAt"`
	Warnings  []Warning        `json:"warnings,omitempty"`
}

// RepoMetadata is a read-only snapshot of one repository.
type RepoMetadata struct {
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	OpenIssues    int       `json:"openIssues"`
	Watchers      int       `json:"watchers"`
	Topics        []string  `json:"topics,omitempty"`
	License       string    `json:"license,omitempty"`
	Archived      bool      `json:"archived"`
	Fork          bool      `json:"fork"`
	Homepage      string    `json:"homepage,omitempty"`
	DefaultBranch string    `json:"defaultBranch"`
	PushedAt      time.Time `json:"pushedAt"`
	FetchedAt     time.Time `json:"fetchedAt"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

// FullName is "owner/name".
func (r RepoMetadata) FullName() string {
	return r.Owner + "/" + r.Name
}

func hasWarning(ws []Warning, field string) bool {
	for _, w := range ws {
		if w.Field == field {
			return true
		}
	}
	return false
}
