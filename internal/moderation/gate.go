// Package moderation classifies user text against a severity-tiered
// blocklist and decides the visibility status of the content.
package moderation

import (
	"context"
	"strings"

	"townsquare/internal/models"
	"townsquare/internal/observability"
)

// Decision is the outcome of evaluating a piece of text.
type Decision struct {
	Allowed     bool              `json:"allowed"`
	Status      models.PostStatus `json:"status"`
	MatchedWord string            `json:"matched_word,omitempty"`
	Severity    models.Severity   `json:"severity,omitempty"`
}

// Published is the decision for text that matched nothing.
var Published = Decision{Allowed: true, Status: models.PostStatusPublished}

// Gate evaluates text against the words served by a Blocklist. The gate
// itself holds no state; freshness is the blocklist's concern.
type Gate struct {
	blocklist Blocklist
}

// NewGate returns a Gate reading words from blocklist.
func NewGate(blocklist Blocklist) *Gate {
	return &Gate{blocklist: blocklist}
}

// ContentText joins a title and body into the text that gets moderated.
func ContentText(title, body string) string {
	if strings.TrimSpace(title) == "" {
		return body
	}
	return title + " " + body
}

// Evaluate scans the blocklist in order and returns the first decisive
// match. HIGH denies and targets DELETED, MEDIUM allows into PENDING_REVIEW,
// LOW is ignored. Matching is case-insensitive substring containment.
func (g *Gate) Evaluate(ctx context.Context, text string) (Decision, error) {
	if strings.TrimSpace(text) == "" {
		return Published, nil
	}

	words, err := g.blocklist.Words(ctx)
	if err != nil {
		return Decision{}, err
	}

	lowered := strings.ToLower(text)
	for _, w := range words {
		needle := strings.ToLower(strings.TrimSpace(w.Word))
		if needle == "" || !strings.Contains(lowered, needle) {
			continue
		}
		switch w.Severity {
		case models.SeverityHigh:
			return record(Decision{
				Allowed:     false,
				Status:      models.PostStatusDeleted,
				MatchedWord: w.Word,
				Severity:    w.Severity,
			}), nil
		case models.SeverityMedium:
			return record(Decision{
				Allowed:     true,
				Status:      models.PostStatusPendingReview,
				MatchedWord: w.Word,
				Severity:    w.Severity,
			}), nil
		}
	}
	return record(Published), nil
}

func record(d Decision) Decision {
	observability.ModerationDecisions.WithLabelValues(string(d.Status)).Inc()
	return d
}
