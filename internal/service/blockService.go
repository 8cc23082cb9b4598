package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ds124wfegd/linkhub/internal/database/postgres"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/google/uuid"
)

type blockService struct {
	users  users
	pages  postgres.PageRepository
	blocks postgres.BlockRepository
	cache  Cache
}

func NewBlockService(userRepo postgres.UserRepository, pageRepo postgres.PageRepository, blockRepo postgres.BlockRepository, cache Cache) BlockService {
	return &blockService{users: users{repo: userRepo}, pages: pageRepo, blocks: blockRepo, cache: cache}
}

func (s *blockService) Create(ctx context.Context, email string, req entity.CreateBlockRequest) (*entity.Block, error) {
	if !req.Type.Valid() {
		return nil, entity.ErrInvalidBlockType
	}
	if err := validateLink(req.Type, req.URL); err != nil {
		return nil, err
	}

	user, page, err := s.owner(ctx, email)
	if err != nil {
		return nil, err
	}

	block := &entity.Block{
		ID:       uuid.NewString(),
		PageID:   page.ID,
		Type:     req.Type,
		Title:    strings.TrimSpace(req.Title),
		URL:      req.URL,
		Content:  req.Content,
		IsActive: true,
	}
	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, user.Username)
	return block, nil
}

func (s *blockService) Update(ctx context.Context, email, id string, req entity.UpdateBlockRequest) (*entity.Block, error) {
	user, block, err := s.ownedBlock(ctx, email, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, entity.ErrInvalidBlockType
		}
		block.Type = *req.Type
	}
	if req.Title != nil {
		block.Title = strings.TrimSpace(*req.Title)
	}
	if req.URL != nil {
		block.URL = *req.URL
	}
	if req.Content != nil {
		block.Content = req.Content
	}
	if req.IsActive != nil {
		block.IsActive = *req.IsActive
	}
	if err := validateLink(block.Type, block.URL); err != nil {
		return nil, err
	}

	if err := s.blocks.Update(ctx, block); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, user.Username)
	return block, nil
}

func (s *blockService) Delete(ctx context.Context, email, id string) error {
	user, block, err := s.ownedBlock(ctx, email, id)
	if err != nil {
		return err
	}
	if err := s.blocks.Delete(ctx, block.ID); err != nil {
		return err
	}

	invalidate(ctx, s.cache, user.Username)
	return nil
}

func (s *blockService) owner(ctx context.Context, email string) (*entity.User, *entity.Page, error) {
	user, err := s.users.resolve(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.pages.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, page, nil
}

func (s *blockService) ownedBlock(ctx context.Context, email, id string) (*entity.User, *entity.Block, error) {
	user, page, err := s.owner(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	block, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if block.PageID != page.ID {
		return nil, nil, entity.ErrForbidden
	}
	return user, block, nil
}

// validateLink requires an absolute http(s) URL on LINK blocks.
func validateLink(t entity.BlockType, raw string) error {
	if t != entity.BlockLink {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: link block needs an http(s) url", entity.ErrInvalidInput)
	}
	return nil
}
