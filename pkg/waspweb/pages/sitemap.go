package pages

import (
	"bytes"
	"context"
	"encoding/xml"

	"golang.org/x/sync/errgroup"
)

const (
	sitemapNamespace  = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapChangeFreq = "daily"
	sitemapPriority   = "0.7"
)

// SitemapCacheControl is sent with the sitemap response.
const SitemapCacheControl = "max-age=0, s-maxage=3600"

// URLSet is the root element of a sitemap document.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL is one sitemap entry.
type SitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Marshal renders the document with its XML declaration.
func (s *URLSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sitemap lists the static pages followed by every script, tutorial and
// developer page. A section whose query fails is logged and left out.
func (a *Assembler) Sitemap(ctx context.Context) *URLSet {
	var scripts, tutorials, developers []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cards, err := a.repository.ListScriptCards(gctx)
		if err != nil {
			a.logger.Error("scripts_public SELECT failed", "err", err)
			return nil
		}
		for _, card := range cards {
			scripts = append(scripts, EncodeSEO(card.Title+" by "+card.AuthorUsername))
		}
		return nil
	})
	g.Go(func() error {
		list, err := a.repository.ListTutorials(gctx)
		if err != nil {
			a.logger.Error("tutorials SELECT failed", "err", err)
			return nil
		}
		for _, t := range list {
			author := ""
			if t.Author != nil {
				author = t.Author.Username
			}
			tutorials = append(tutorials, EncodeSEO(t.Title+" by "+author))
		}
		return nil
	})
	g.Go(func() error {
		list, err := a.repository.ListDevelopers(gctx)
		if err != nil {
			a.logger.Error("developers SELECT failed", "err", err)
			return nil
		}
		for _, d := range list {
			developers = append(developers, EncodeSEO(d.Username))
		}
		return nil
	})
	_ = g.Wait()

	set := &URLSet{Xmlns: sitemapNamespace}
	add := func(loc string) {
		set.URLs = append(set.URLs, SitemapURL{
			Loc:        loc,
			ChangeFreq: sitemapChangeFreq,
			Priority:   sitemapPriority,
		})
	}
	section := func(path string, slugs []string) {
		for _, slug := range slugs {
			add(a.siteURL + "/" + path + "/" + slug)
		}
	}

	add(a.siteURL)
	add(a.siteURL + "/setup")
	add(a.siteURL + "/scripts")
	section("scripts", scripts)
	add(a.siteURL + "/stats")
	add(a.siteURL + "/premium")
	add(a.siteURL + "/faq")
	add(a.siteURL + "/tutorials")
	section("tutorials", tutorials)
	add(a.siteURL + "/developers")
	section("developers", developers)

	return set
}
