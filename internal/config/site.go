package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Default page sizes applied when the YAML leaves them unset.
const (
	defaultEntriesPerHome = 3
	defaultEntriesPerFeed = 10
)

// SiteConfig represents the public-facing blog configuration: the metadata
// stamped into pages and the Atom feed, and the page sizes for the home page
// and the feed.
type SiteConfig struct {
	Site struct {
		Title  string `yaml:"title"`
		Author struct {
			Name  string `yaml:"name"`
			Email string `yaml:"email"`
		} `yaml:"author"`
		BaseURL        string `yaml:"base_url"`
		EntriesPerHome int    `yaml:"entries_per_home"`
		EntriesPerFeed int    `yaml:"entries_per_feed"`
		// Comments are served by an external widget; the backend only
		// hands its settings to the page templates.
		Comments struct {
			Provider  string `yaml:"provider"`
			Shortname string `yaml:"shortname"`
			Enabled   bool   `yaml:"enabled"`
		} `yaml:"comments"`
	} `yaml:"site"`
}

// DefaultSiteConfig returns the configuration used when no YAML file is
// provided, suitable for local development.
func DefaultSiteConfig() *SiteConfig {
	var config SiteConfig
	config.Site.Title = "Inkwell"
	config.Site.Author.Name = "author"
	config.Site.BaseURL = "http://localhost:8080"
	config.Site.EntriesPerHome = defaultEntriesPerHome
	config.Site.EntriesPerFeed = defaultEntriesPerFeed
	return &config
}

// LoadSiteConfig loads the site configuration from a YAML file.
// The path parameter is expected to come from a trusted source (command-line argument or hardcoded default).
func LoadSiteConfig(path string) (*SiteConfig, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config SiteConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applySiteDefaults(&config)

	if err := validateSiteConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applySiteDefaults fills page sizes left unset in the YAML.
func applySiteDefaults(config *SiteConfig) {
	if config.Site.EntriesPerHome == 0 {
		config.Site.EntriesPerHome = defaultEntriesPerHome
	}
	if config.Site.EntriesPerFeed == 0 {
		config.Site.EntriesPerFeed = defaultEntriesPerFeed
	}
}

// validateSiteConfig validates the loaded configuration.
func validateSiteConfig(config *SiteConfig) error {
	if config.Site.Title == "" {
		return fmt.Errorf("site title is required")
	}

	if config.Site.Author.Name == "" {
		return fmt.Errorf("site author name is required")
	}

	if config.Site.BaseURL == "" {
		return fmt.Errorf("site base_url is required")
	}
	parsed, err := url.Parse(config.Site.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("site base_url must be an absolute http(s) URL")
	}

	if config.Site.EntriesPerHome < 0 {
		return fmt.Errorf("entries_per_home must not be negative")
	}
	if config.Site.EntriesPerFeed < 0 {
		return fmt.Errorf("entries_per_feed must not be negative")
	}

	if config.Site.Comments.Enabled && config.Site.Comments.Shortname == "" {
		return fmt.Errorf("comments shortname is required when the widget is enabled")
	}

	return nil
}

// GetTitle returns the blog title.
func (c *SiteConfig) GetTitle() string {
	return c.Site.Title
}

// GetAuthorName returns the author's display name stamped on entries.
func (c *SiteConfig) GetAuthorName() string {
	return c.Site.Author.Name
}

// GetAuthorEmail returns the author's contact address.
func (c *SiteConfig) GetAuthorEmail() string {
	return c.Site.Author.Email
}

// GetBaseURL returns the canonical site URL without a trailing slash.
func (c *SiteConfig) GetBaseURL() string {
	base := c.Site.BaseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}

// GetEntriesPerHome returns the number of entries shown on the home page.
func (c *SiteConfig) GetEntriesPerHome() int {
	return c.Site.EntriesPerHome
}

// GetEntriesPerFeed returns the number of entries in the Atom feed.
func (c *SiteConfig) GetEntriesPerFeed() int {
	return c.Site.EntriesPerFeed
}
