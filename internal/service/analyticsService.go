package service

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/ds124wfegd/linkhub/internal/database/postgres"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxUserAgent  = 255
	analyticsDays = 7
	topBlocks     = 5
	dayLayout     = "2006-01-02"
)

type analyticsService struct {
	users  users
	pages  postgres.PageRepository
	blocks postgres.BlockRepository
	clicks postgres.ClickRepository
	cache  Cache
	now    func() time.Time
}

func NewAnalyticsService(userRepo postgres.UserRepository, pageRepo postgres.PageRepository, blockRepo postgres.BlockRepository, clickRepo postgres.ClickRepository, cache Cache) AnalyticsService {
	return &analyticsService{
		users:  users{repo: userRepo},
		pages:  pageRepo,
		blocks: blockRepo,
		clicks: clickRepo,
		cache:  cache,
		now:    time.Now,
	}
}

func (s *analyticsService) RecordClick(ctx context.Context, blockID, userAgent, ip string) error {
	block, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		return err
	}

	click := &entity.Click{
		ID:        uuid.NewString(),
		BlockID:   block.ID,
		UserAgent: truncate(userAgent, maxUserAgent),
		Country:   country(ip),
		Timestamp: s.now().UTC(),
	}
	if err := s.clicks.Create(ctx, click); err != nil {
		return err
	}

	if err := s.cache.IncrementPopularity(ctx, block.ID); err != nil {
		logrus.WithError(err).WithField("block_id", block.ID).Warn("failed to bump block popularity")
	}
	return nil
}

func (s *analyticsService) GetAnalytics(ctx context.Context, email string) (*entity.Analytics, error) {
	user, err := s.users.resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	page, err := s.pages.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats, err := s.clicks.StatsByBlock(ctx, page.ID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(analyticsDays - 1))
	counts, err := s.clicks.CountByDay(ctx, page.ID, since)
	if err != nil {
		return nil, err
	}

	result := &entity.Analytics{
		ClicksByDay: make([]entity.DailyStat, 0, analyticsDays),
		BlockStats:  stats,
	}
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		result.ClicksByDay = append(result.ClicksByDay, entity.DailyStat{Date: key, Clicks: counts[key]})
	}

	own := make(map[string]bool, len(stats))
	for _, st := range stats {
		result.TotalClicks += st.Clicks
		own[st.ID] = true
	}

	top := append([]entity.BlockStat(nil), stats...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Clicks > top[j].Clicks })
	if len(top) > topBlocks {
		top = top[:topBlocks]
	}
	result.TopBlocks = top

	// the ranking is global; keep only this page's blocks
	popular, err := s.cache.GetPopularBlocks(ctx, 100)
	if err != nil {
		logrus.WithError(err).Warn("failed to read popular blocks")
	}
	for _, id := range popular {
		if own[id] && len(result.Popular) < topBlocks {
			result.Popular = append(result.Popular, id)
		}
	}

	return result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// country has no geo lookup behind it yet: loopback and unparseable
// addresses are "Local", everything else "Unknown".
func country(ip string) string {
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() {
		return "Local"
	}
	return "Unknown"
}
