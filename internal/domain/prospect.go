package domain

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Daily digest confidence band and size.
const (
	DigestMinScore = 0.90
	DigestMaxScore = 0.95
	DigestLimit    = 40
)

type ProspectReason struct {
	Reason     string `json:"reason"`
	SourceText string `json:"source_text"`
}

type AnalyzedProspect struct {
	UpID      string           `json:"up_id" db:"up_id"`
	AccountID uuid.UUID        `json:"account_id" db:"account_id"`
	Score     float64          `json:"score" db:"score"`
	Reasoning []ProspectReason `json:"reasoning" db:"reasoning"`
}

type Prospect struct {
	UpID        string    `json:"up_id" db:"up_id"`
	AccountID   uuid.UUID `json:"account_id" db:"account_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	LinkedInURL string    `json:"linkedin_url" db:"linkedin_url"`
	JobTitle    string    `json:"job_title" db:"job_title"`
	CompanyName string    `json:"company_name" db:"company_name"`
}

func (p Prospect) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// ProspectUpdate is one row of the daily prospect digest.
type ProspectUpdate struct {
	UpID        string  `json:"up_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	LinkedInURL string  `json:"linkedin_url"`
	Insights    string  `json:"insights"`
	Score       float64 `json:"score"`
	JobTitle    string  `json:"job_title"`
	Company     string  `json:"company"`
	References  string  `json:"references"`
}

func InDigestBand(score float64) bool {
	return score >= DigestMinScore && score <= DigestMaxScore
}

// MatchProspects joins analyzed prospects with their profiles and ranks the result.
// Rows without a profile or without a LinkedIn link are dropped. Ties keep input order.
func MatchProspects(analyzed []AnalyzedProspect, prospects []Prospect) []ProspectUpdate {
	byID := make(map[string]Prospect, len(prospects))
	for _, p := range prospects {
		byID[p.UpID] = p
	}

	updates := make([]ProspectUpdate, 0, len(analyzed))
	for _, ap := range analyzed {
		if !InDigestBand(ap.Score) {
			continue
		}
		p, ok := byID[ap.UpID]
		if !ok || strings.TrimSpace(p.LinkedInURL) == "" {
			continue
		}

		reasons := make([]string, 0, len(ap.Reasoning))
		sources := make([]string, 0, len(ap.Reasoning))
		for _, r := range ap.Reasoning {
			reasons = append(reasons, r.Reason)
			sources = append(sources, r.SourceText)
		}

		updates = append(updates, ProspectUpdate{
			UpID:        ap.UpID,
			Name:        p.FullName(),
			Email:       p.Email,
			LinkedInURL: p.LinkedInURL,
			Insights:    joinSentences(reasons),
			Score:       math.Round(ap.Score*10000) / 100,
			JobTitle:    p.JobTitle,
			Company:     p.CompanyName,
			References:  joinSentences(sources),
		})
	}

	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Score > updates[j].Score
	})
	return updates
}

// joinSentences period-terminates each non-empty part and joins them with a space.
func joinSentences(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, ".") && !strings.HasSuffix(p, "!") && !strings.HasSuffix(p, "?") {
			p += "."
		}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}
