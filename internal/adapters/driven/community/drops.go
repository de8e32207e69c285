package community

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/logger"
)

// maxBadgePages bounds the badge pages read for one lookup.
const maxBadgePages = 50

var dropsPattern = regexp.MustCompile(`(\d+)\s+card\s+drops?\s+remaining`)

// Drops scrapes remaining card drops from the badge pages.
type Drops struct {
	client *Client
}

var _ driven.RewardSource = (*Drops)(nil)

// NewDrops creates a drop scraper using client.
func NewDrops(client *Client) *Drops {
	return &Drops{client: client}
}

// DropsRemaining reads the drop counter on a title's card page.
// A page without a counter reports zero.
func (d *Drops) DropsRemaining(ctx context.Context, creds domain.SessionCredentials, titleID int) (int, error) {
	if creds.Identity == "" {
		return 0, domain.ErrNoIdentity
	}
	path := fmt.Sprintf("/profiles/%s/gamecards/%d/?l=english", creds.Identity, titleID)
	doc, err := d.client.fetch(ctx, path, creds)
	if err != nil {
		return 0, err
	}

	progress := findFirst(doc, hasClass("progress_info_bold"))
	if progress == nil {
		logger.Debug("community: no drop counter for %d", titleID)
		return 0, nil
	}
	return parseDrops(textContent(progress)), nil
}

// TitlesWithDrops walks every badge page, sorted by drops, and collects
// titles that still have drops. Pages after the first are fetched
// concurrently; a failed page is skipped.
func (d *Drops) TitlesWithDrops(ctx context.Context, creds domain.SessionCredentials) ([]domain.TitleDrops, error) {
	if creds.Identity == "" {
		return nil, domain.ErrNoIdentity
	}

	first, err := d.client.fetch(ctx, badgePath(creds.Identity, 1), creds)
	if err != nil {
		return nil, err
	}
	out := parseBadgeRows(first)
	pages := min(pageCount(first), maxBadgePages)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			doc, err := d.client.fetch(gctx, badgePath(creds.Identity, page), creds)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("community: skipping badge page %d: %v", page, err)
				return nil
			}
			rows := parseBadgeRows(doc)
			mu.Lock()
			out = append(out, rows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func badgePath(identity string, page int) string {
	return fmt.Sprintf("/profiles/%s/badges/?l=english&sort=p&p=%d", identity, page)
}

// parseDrops extracts N from "N card drops remaining"; anything else is zero.
func parseDrops(text string) int {
	if strings.Contains(text, "No card drops remaining") {
		return 0
	}
	m := dropsPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// pageCount returns the highest page number in the pager, or 1.
func pageCount(doc *html.Node) int {
	pager := findFirst(doc, hasClass("pageLinks"))
	if pager == nil {
		return 1
	}
	highest := 1
	for _, link := range findAll(pager, hasClass("pagelink")) {
		if n, err := strconv.Atoi(strings.TrimSpace(textContent(link))); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// parseBadgeRows reads every badge row that has drops and a run link.
func parseBadgeRows(doc *html.Node) []domain.TitleDrops {
	var out []domain.TitleDrops
	for _, row := range findAll(doc, hasClass("badge_row")) {
		progress := findFirst(row, hasClass("progress_info_bold"))
		if progress == nil {
			continue
		}
		remaining := parseDrops(textContent(progress))
		if remaining == 0 {
			continue
		}

		run := findFirst(row, hasClass("btn_green_white_innerfade"))
		if run == nil {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(attr(run, "href"), "steam://run/"))
		if err != nil || id <= 0 {
			continue
		}

		var name string
		if title := findFirst(row, hasClass("badge_title")); title != nil {
			name = strings.TrimSpace(strings.ReplaceAll(textContent(title), "View details", ""))
		}
		out = append(out, domain.TitleDrops{
			Title:     domain.Title{ID: id, Name: name},
			Remaining: remaining,
		})
	}
	return out
}
