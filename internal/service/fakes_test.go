package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/stretchr/testify/require"
)

// memDB backs every fake repository so ownership checks see one dataset.
type memDB struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	pages  map[string]*entity.Page
	blocks map[string]*entity.Block
	clicks []*entity.Click
}

func newMemDB() *memDB {
	return &memDB{
		users:  map[string]*entity.User{},
		pages:  map[string]*entity.Page{},
		blocks: map[string]*entity.Block{},
	}
}

type fakeUsers struct{ db *memDB }

func (r fakeUsers) Create(_ context.Context, u *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

func (r fakeUsers) find(match func(*entity.User) bool) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

func (r fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r fakeUsers) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

type fakePages struct{ db *memDB }

func (r fakePages) Create(_ context.Context, p *entity.Page) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *p
	r.db.pages[p.ID] = &cp
	return nil
}

func (r fakePages) GetByID(_ context.Context, id string) (*entity.Page, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pages[id]
	if !ok {
		return nil, entity.ErrPageNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakePages) GetByUserID(_ context.Context, userID string) (*entity.Page, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.pages {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, entity.ErrPageNotFound
}

func (r fakePages) Update(_ context.Context, p *entity.Page) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.pages[p.ID]
	if !ok {
		return entity.ErrPageNotFound
	}
	stored.Title, stored.Description, stored.IsPublic = p.Title, p.Description, p.IsPublic
	return nil
}

func (r fakePages) swap(id string, set func(*entity.Page) *string, url string) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pages[id]
	if !ok {
		return "", entity.ErrPageNotFound
	}
	field := set(p)
	prev := *field
	*field = url
	return prev, nil
}

func (r fakePages) SetAvatar(_ context.Context, id, url string) (string, error) {
	return r.swap(id, func(p *entity.Page) *string { return &p.Avatar }, url)
}

func (r fakePages) SetBanner(_ context.Context, id, url string) (string, error) {
	return r.swap(id, func(p *entity.Page) *string { return &p.Banner }, url)
}

type fakeBlocks struct{ db *memDB }

func (r fakeBlocks) Create(_ context.Context, b *entity.Block) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.blocks {
		if other.PageID == b.PageID && other.Position >= b.Position {
			b.Position = other.Position + 1
		}
	}
	cp := *b
	r.db.blocks[b.ID] = &cp
	return nil
}

func (r fakeBlocks) GetByID(_ context.Context, id string) (*entity.Block, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.blocks[id]
	if !ok {
		return nil, entity.ErrBlockNotFound
	}
	cp := *b
	return &cp, nil
}

func (r fakeBlocks) GetByPageID(_ context.Context, pageID string, activeOnly bool) ([]*entity.Block, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Block
	for _, b := range r.db.blocks {
		if b.PageID == pageID && (!activeOnly || b.IsActive) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r fakeBlocks) Update(_ context.Context, b *entity.Block) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.blocks[b.ID]; !ok {
		return entity.ErrBlockNotFound
	}
	cp := *b
	r.db.blocks[b.ID] = &cp
	return nil
}

func (r fakeBlocks) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.blocks[id]; !ok {
		return entity.ErrBlockNotFound
	}
	delete(r.db.blocks, id)
	return nil
}

func (r fakeBlocks) swap(id string, set func(*entity.Block) *string, url string) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.blocks[id]
	if !ok {
		return "", entity.ErrBlockNotFound
	}
	field := set(b)
	prev := *field
	*field = url
	return prev, nil
}

func (r fakeBlocks) SetBanner(_ context.Context, id, url string) (string, error) {
	return r.swap(id, func(b *entity.Block) *string { return &b.BannerURL }, url)
}

func (r fakeBlocks) SetImage(_ context.Context, id, url string) (string, error) {
	return r.swap(id, func(b *entity.Block) *string { return &b.ImageURL }, url)
}

type fakeClicks struct{ db *memDB }

func (r fakeClicks) Create(_ context.Context, c *entity.Click) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *c
	r.db.clicks = append(r.db.clicks, &cp)
	return nil
}

func (r fakeClicks) CountByDay(_ context.Context, pageID string, since time.Time) (map[string]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[string]int{}
	for _, c := range r.db.clicks {
		b, ok := r.db.blocks[c.BlockID]
		if ok && b.PageID == pageID && !c.Timestamp.Before(since) {
			out[c.Timestamp.UTC().Format(dayLayout)]++
		}
	}
	return out, nil
}

func (r fakeClicks) StatsByBlock(_ context.Context, pageID string) ([]entity.BlockStat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var blocks []*entity.Block
	for _, b := range r.db.blocks {
		if b.PageID == pageID {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Position < blocks[j].Position })

	stats := make([]entity.BlockStat, 0, len(blocks))
	for _, b := range blocks {
		st := entity.BlockStat{ID: b.ID, Title: b.Title, Type: b.Type}
		for _, c := range r.db.clicks {
			if c.BlockID == b.ID {
				st.Clicks++
			}
		}
		stats = append(stats, st)
	}
	return stats, nil
}

type fakeCache struct {
	mu      sync.Mutex
	pages   map[string]*entity.PublicUser
	deletes []string
	popular map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: map[string]*entity.PublicUser{}, popular: map[string]int{}}
}

func (c *fakeCache) GetPublicPage(_ context.Context, username string) (*entity.PublicUser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[username]
	if !ok {
		return nil, errCacheDisabled
	}
	return p, nil
}

func (c *fakeCache) SetPublicPage(_ context.Context, username string, p *entity.PublicUser) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[username] = p
	return nil
}

func (c *fakeCache) DeletePublicPage(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, username)
	c.deletes = append(c.deletes, username)
	return nil
}

func (c *fakeCache) IncrementPopularity(_ context.Context, blockID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.popular[blockID]++
	return nil
}

func (c *fakeCache) GetPopularBlocks(_ context.Context, n int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.popular))
	for id := range c.popular {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.popular[ids[i]] > c.popular[ids[j]] })
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

type fakeProducer struct {
	mu     sync.Mutex
	events []entity.ImageReplaced
}

func (p *fakeProducer) SendMessage(_ context.Context, _ string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, message.(entity.ImageReplaced))
	return nil
}

func (p *fakeProducer) sent() []entity.ImageReplaced {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.ImageReplaced(nil), p.events...)
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	unblock chan struct{}
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, asset crop.Asset) (crop.UploadResult, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	if u.started != nil {
		u.started <- struct{}{}
	}
	if u.unblock != nil {
		<-u.unblock
	}
	if u.err != nil {
		return crop.UploadResult{}, u.err
	}
	id := asset.Folder + "/" + asset.Name
	return crop.UploadResult{
		URL:      "https://cdn.test/" + id + asset.Format.Extension(),
		PublicID: id,
		Width:    asset.Width,
		Height:   asset.Height,
		Format:   string(asset.Format),
		Bytes:    len(asset.Data),
	}, nil
}

// fixture wires every service against the same in-memory data.
type fixture struct {
	db       *memDB
	cache    *fakeCache
	producer *fakeProducer
	uploader *fakeUploader

	pages     PageService
	blocks    BlockService
	analytics *analyticsService
	images    ImageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	f := &fixture{
		db:       db,
		cache:    newFakeCache(),
		producer: &fakeProducer{},
		uploader: &fakeUploader{},
	}
	u, p, b := fakeUsers{db}, fakePages{db}, fakeBlocks{db}
	f.pages = NewPageService(u, p, b, f.cache, "hello")
	f.blocks = NewBlockService(u, p, b, f.cache)
	f.analytics = NewAnalyticsService(u, p, b, fakeClicks{db}, f.cache).(*analyticsService)
	f.images = NewImageService(u, p, b, f.cache, f.producer)
	return f
}

func (f *fixture) page(t *testing.T, email string) *entity.Page {
	t.Helper()
	page, err := f.pages.GetOrCreate(context.Background(), email)
	require.NoError(t, err)
	return page
}

func (f *fixture) cropService(t *testing.T, leases LeaseStore) *cropService {
	t.Helper()
	cfg, err := config.Defaults()
	require.NoError(t, err)
	svc, err := NewCropService(cfg.Crop, f.images, f.uploader, leases)
	require.NoError(t, err)
	return svc.(*cropService)
}

func pngFile(t *testing.T, w, h int) crop.File {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return crop.File{
		Name:      "photo.png",
		Size:      int64(buf.Len()),
		MediaType: "image/png",
		Data:      bytes.NewReader(buf.Bytes()),
	}
}
