package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"github.com/roach88/chronicle/internal/store"
)

// feedPostCount caps how many posts the feed carries.
const feedPostCount = 50

// feedTTL bounds how often the feed is rebuilt from storage.
const feedTTL = 10 * time.Minute

// buildFeed renders the newest posts as an RSS 2.0 document.
func buildFeed(ctx context.Context, storage store.Storage, site *SiteConfig, now time.Time) (string, error) {
	page, err := store.NewPagination(1, feedPostCount)
	if err != nil {
		return "", err
	}
	posts, err := storage.ListPosts(ctx, page)
	if err != nil {
		return "", fmt.Errorf("list posts for feed: %w", err)
	}

	feed := &feeds.Feed{
		Title:       site.Title,
		Link:        &feeds.Link{Href: site.URL},
		Description: site.Description,
		Author:      &feeds.Author{Name: site.Owner, Email: site.OwnerEmail},
		Copyright:   site.Copyright,
		Created:     now,
	}

	for _, post := range posts.Posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          site.PostURL(post.Slug),
			Title:       post.Title,
			Link:        &feeds.Link{Href: site.PostURL(post.Slug)},
			Author:      &feeds.Author{Name: post.Author},
			Description: post.Category,
			Created:     time.Unix(post.CreateTimestamp, 0).UTC(),
			Updated:     time.Unix(post.UpdateTimestamp, 0).UTC(),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("render feed: %w", err)
	}
	return rss, nil
}
