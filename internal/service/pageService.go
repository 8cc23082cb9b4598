package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ds124wfegd/linkhub/internal/database/postgres"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultTheme   = "default"
	maxTitleLength = 200
	maxDescription = 1000
)

type pageService struct {
	users   users
	pages   postgres.PageRepository
	blocks  postgres.BlockRepository
	cache   Cache
	welcome string
}

func NewPageService(userRepo postgres.UserRepository, pageRepo postgres.PageRepository, blockRepo postgres.BlockRepository, cache Cache, welcome string) PageService {
	return &pageService{
		users:   users{repo: userRepo},
		pages:   pageRepo,
		blocks:  blockRepo,
		cache:   cache,
		welcome: welcome,
	}
}

// GetOrCreate returns the caller's page with all its blocks. The first call
// for a new account creates the page and a welcome text block.
func (s *pageService) GetOrCreate(ctx context.Context, email string) (*entity.Page, error) {
	user, err := s.users.resolve(ctx, email)
	if err != nil {
		return nil, err
	}

	page, err := s.pages.GetByUserID(ctx, user.ID)
	if errors.Is(err, entity.ErrPageNotFound) {
		page, err = s.create(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	page.Blocks, err = s.blocks.GetByPageID(ctx, page.ID, false)
	if err != nil {
		return nil, err
	}
	page.User = &entity.PageUser{Username: user.Username, Name: user.Name, Email: user.Email}
	return page, nil
}

func (s *pageService) create(ctx context.Context, user *entity.User) (*entity.Page, error) {
	page := &entity.Page{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Title:    "Страница " + user.Name,
		ThemeID:  defaultTheme,
		IsPublic: true,
	}
	if err := s.pages.Create(ctx, page); err != nil {
		return nil, err
	}

	content, _ := json.Marshal(map[string]string{"text": s.welcome})
	welcome := &entity.Block{
		ID:       uuid.NewString(),
		PageID:   page.ID,
		Type:     entity.BlockText,
		Title:    "Приветствие",
		Content:  content,
		IsActive: true,
	}
	if err := s.blocks.Create(ctx, welcome); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"page_id": page.ID, "username": user.Username}).Info("page created")
	return page, nil
}

func (s *pageService) Update(ctx context.Context, email string, req entity.UpdatePageRequest) (*entity.Page, error) {
	page, err := s.GetOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len([]rune(title)) > maxTitleLength {
			return nil, fmt.Errorf("%w: title must be 1-%d characters", entity.ErrInvalidInput, maxTitleLength)
		}
		page.Title = title
	}
	if req.Description != nil {
		if len([]rune(*req.Description)) > maxDescription {
			return nil, fmt.Errorf("%w: description is longer than %d characters", entity.ErrInvalidInput, maxDescription)
		}
		page.Description = *req.Description
	}
	if req.IsPublic != nil {
		page.IsPublic = *req.IsPublic
	}

	if err := s.pages.Update(ctx, page); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, page.User.Username)
	return page, nil
}

func (s *pageService) GetPublic(ctx context.Context, username string) (*entity.PublicUser, error) {
	if cached, err := s.cache.GetPublicPage(ctx, username); err == nil {
		return cached, nil
	}

	user, err := s.users.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := s.pages.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !page.IsPublic {
		return nil, entity.ErrPageNotFound
	}

	blocks, err := s.blocks.GetByPageID(ctx, page.ID, true)
	if err != nil {
		return nil, err
	}

	public := &entity.PublicUser{
		Username: user.Username,
		Name:     user.Name,
		Page: &entity.PublicPage{
			ID:          page.ID,
			Title:       page.Title,
			Description: page.Description,
			Avatar:      page.Avatar,
			Banner:      page.Banner,
			ThemeID:     page.ThemeID,
			Blocks:      make([]*entity.PublicBlock, 0, len(blocks)),
		},
	}
	for _, b := range blocks {
		public.Page.Blocks = append(public.Page.Blocks, b.Public())
	}

	if err := s.cache.SetPublicPage(ctx, username, public); err != nil {
		logrus.WithError(err).WithField("username", username).Warn("failed to cache public page")
	}
	return public, nil
}

func invalidate(ctx context.Context, cache Cache, username string) {
	if username == "" {
		return
	}
	if err := cache.DeletePublicPage(ctx, username); err != nil {
		logrus.WithError(err).WithField("username", username).Warn("failed to invalidate public page")
	}
}
