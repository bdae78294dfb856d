package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteConfig carries the site metadata served alongside the content:
// feed identity, ownership and the template for public post URLs.
type SiteConfig struct {
	// Title of the site, used as the feed title.
	Title string `yaml:"title"`

	// Description of the site.
	Description string `yaml:"description"`

	// URL is the site's public root URL.
	URL string `yaml:"url"`

	// Owner is the site owner's display name.
	Owner string `yaml:"owner"`

	// OwnerEmail is the site owner's contact address.
	OwnerEmail string `yaml:"ownerEmail"`

	// Copyright line for the feed.
	Copyright string `yaml:"copyright"`

	// PostURLTemplate produces a post's public URL; the literal
	// "${slug}" is replaced with the post's slug.
	PostURLTemplate string `yaml:"postUrlTemplate"`
}

// LoadSiteConfig reads and validates a YAML site configuration file.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}

	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse site config: %w", err)
	}

	if cfg.Title == "" {
		return nil, fmt.Errorf("site config %s: title is required", path)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("site config %s: url is required", path)
	}
	if cfg.PostURLTemplate == "" {
		return nil, fmt.Errorf("site config %s: postUrlTemplate is required", path)
	}
	if !strings.Contains(cfg.PostURLTemplate, slugPlaceholder) {
		return nil, fmt.Errorf("site config %s: postUrlTemplate must contain %q", path, slugPlaceholder)
	}

	return &cfg, nil
}

const slugPlaceholder = "${slug}"

// PostURL returns the public URL of the post with the given slug.
func (c *SiteConfig) PostURL(slug string) string {
	return strings.ReplaceAll(c.PostURLTemplate, slugPlaceholder, slug)
}
