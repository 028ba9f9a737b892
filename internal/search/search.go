package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type Client interface {
	Search(ctx context.Context, params Params) (*Page, error)
}

type Params struct {
	Term    string
	Country string
	Entity  string
	Limit   int
	Offset  int
}

func (p *Params) ApplyDefaults() {
	if p.Country == "" {
		p.Country = "us"
	}
	if p.Entity == "" {
		p.Entity = "podcast"
	}
	if p.Limit == 0 {
		p.Limit = 20
	}
}

func (p Params) Validate() error {
	if strings.TrimSpace(p.Term) == "" {
		return domain.ErrEmptyTerm
	}
	if p.Limit < 0 || p.Limit > 200 {
		return domain.ErrInvalidLimit
	}
	if p.Offset < 0 {
		return domain.ErrInvalidOffset
	}
	return nil
}

// Fingerprint - детерминированный ключ запроса для кеша и дедупликации.
// Один и тот же логический запрос всегда даёт один и тот же ключ.
func (p Params) Fingerprint() string {
	term := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(p.Term))), " ")
	data := fmt.Sprintf("%s|%s|%s|%d|%d", term, strings.ToLower(p.Country), p.Entity, p.Limit, p.Offset)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("search:%x", hash[:8])
}

type Page struct {
	ResultCount int
	Results     []domain.PodcastSnapshot
}
