// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// UpdatePriority classifies how urgently a page needs a rewrite.
type UpdatePriority string

const (
	PriorityCritical UpdatePriority = "Critical"
	PriorityHigh     UpdatePriority = "High"
	PriorityMedium   UpdatePriority = "Medium"
	PriorityHealthy  UpdatePriority = "Healthy"
	PriorityError    UpdatePriority = "Error"
)

// PublishState records whether a page has been rewritten and republished.
type PublishState string

const (
	PublishStateNone    PublishState = "none"
	PublishStateUpdated PublishState = "updated"
)

// StaleAfterDays is the age past which a page is flagged stale.
const StaleAfterDays = 365

// SitemapPage is one discovered page on the target site. URL is the identity.
type SitemapPage struct {
	URL           string         `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	LastMod       *time.Time     `json:"lastMod,omitempty"`
	WordCount     int            `json:"wordCount"`
	CrawledText   string         `json:"crawledContent,omitempty"`
	HealthScore   *int           `json:"healthScore"`
	Priority      UpdatePriority `json:"updatePriority,omitempty"`
	Justification string         `json:"justification,omitempty"`
	DaysOld       *int           `json:"daysOld"`
	IsStale       bool           `json:"isStale"`
	PublishState  PublishState   `json:"publishedState"`
}

// Age fills DaysOld and IsStale relative to now. Pages without a lastmod
// keep both unset.
func (p *SitemapPage) Age(now time.Time) {
	if p.LastMod == nil {
		p.DaysOld = nil
		p.IsStale = false
		return
	}
	days := int(now.Sub(*p.LastMod).Hours() / 24)
	p.DaysOld = &days
	p.IsStale = days > StaleAfterDays
}
