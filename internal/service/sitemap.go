package service

import (
	"context"
	"encoding/xml"
	"os"
	"time"
)

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// regenerateSitemap rewrites the sitemap file from the current set of live
// posts. Called as a publish side effect; failures surface as warnings only.
func (s *PublishService) regenerateSitemap(ctx context.Context) error {
	if s.sitemapPath == "" {
		return nil
	}

	posts, err := s.store.ListPublishedPosts(ctx)
	if err != nil {
		return err
	}

	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(posts)+1),
	}
	set.URLs = append(set.URLs, sitemapURL{Loc: s.siteURL})

	for _, post := range posts {
		entry := sitemapURL{Loc: s.postURL(post.ID)}
		if post.PublishedAt != nil {
			entry.LastMod = post.PublishedAt.Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.sitemapPath, append([]byte(xml.Header), data...), 0o644)
}
