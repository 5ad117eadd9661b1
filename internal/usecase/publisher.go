package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/naka-gawa/github-digest/internal/domain"
	"github.com/naka-gawa/github-digest/internal/gateway"
	"github.com/rs/zerolog"
)

const (
	labelColor       = "0075ca"
	labelDescription = "Daily digest report"
)

// Publisher delivers a rendered digest as a labeled issue.
type Publisher struct {
	gateway gateway.Publisher
	logger  zerolog.Logger
}

// NewPublisher creates a new Publisher instance.
func NewPublisher(gw gateway.Publisher, logger zerolog.Logger) *Publisher {
	return &Publisher{
		gateway: gw,
		logger:  logger,
	}
}

// DigestTitle is the issue title for a digest published at now.
func DigestTitle(now time.Time) string {
	return "Daily Digest: " + now.UTC().Format("2006-01-02")
}

// Publish ensures label exists on digestRepo, then opens an issue with the
// markdown body and returns its URL.
func (p *Publisher) Publish(ctx context.Context, digestRepo, markdown, label string, now time.Time) (string, error) {
	if _, _, err := domain.SplitFullName(digestRepo); err != nil {
		return "", fmt.Errorf("%w %q: expected \"owner/repo\"", domain.ErrInvalidDigestRepo, digestRepo)
	}

	if err := p.ensureLabel(ctx, digestRepo, label); err != nil {
		return "", err
	}

	url, err := p.gateway.CreateIssue(ctx, digestRepo, DigestTitle(now), markdown, []string{label})
	if err != nil {
		return "", err
	}
	p.logger.Info().Str("repo", digestRepo).Str("url", url).Msg("digest published")
	return url, nil
}

func (p *Publisher) ensureLabel(ctx context.Context, digestRepo, label string) error {
	err := p.gateway.GetLabel(ctx, digestRepo, label)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	p.logger.Debug().Str("repo", digestRepo).Str("label", label).Msg("label missing; creating it")
	return p.gateway.CreateLabel(ctx, digestRepo, label, labelColor, labelDescription)
}
