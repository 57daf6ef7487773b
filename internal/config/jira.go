package config

import (
	"fmt"
	"strings"
	"time"
)

// JiraSettings holds what is needed to connect to a Jira instance.
type JiraSettings struct {
	URL      string
	Email    string
	APIToken string
	Timeout  time.Duration
	// MaxRetries bounds retries of rate-limited requests.
	MaxRetries int
}

// ConfigError reports missing or invalid settings.
type ConfigError struct {
	Missing []string
	Hint    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing Jira configuration: %s", strings.Join(e.Missing, ", "))
}

// Jira returns the connection settings. URL and API token are required; a
// missing email selects bearer-token auth.
func Jira() (JiraSettings, error) {
	s := JiraSettings{
		URL:      strings.TrimSuffix(GetString(KeyJiraURL), "/"),
		Email:    GetString(KeyJiraEmail),
		APIToken: GetString(KeyJiraToken),
		Timeout:  GetDuration(KeyJiraTimeout),

		MaxRetries: GetInt(KeyJiraRetries),
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}

	var missing []string
	if s.URL == "" {
		missing = append(missing, "JIRA_URL")
	}
	if s.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if len(missing) > 0 {
		return s, &ConfigError{
			Missing: missing,
			Hint: "Set them in the environment or a .env file:\n" +
				"  JIRA_URL=https://your-domain.atlassian.net\n" +
				"  JIRA_EMAIL=you@example.com\n" +
				"  JIRA_API_TOKEN=<token from id.atlassian.com>",
		}
	}
	if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		return s, &ConfigError{
			Missing: []string{"JIRA_URL (must start with http:// or https://)"},
			Hint:    fmt.Sprintf("Got %q.", s.URL),
		}
	}
	return s, nil
}
