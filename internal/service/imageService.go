package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/database/postgres"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/sirupsen/logrus"
)

type imageService struct {
	users    users
	pages    postgres.PageRepository
	blocks   postgres.BlockRepository
	cache    Cache
	producer EventProducer
}

func NewImageService(userRepo postgres.UserRepository, pageRepo postgres.PageRepository, blockRepo postgres.BlockRepository, cache Cache, producer EventProducer) ImageService {
	return &imageService{
		users:    users{repo: userRepo},
		pages:    pageRepo,
		blocks:   blockRepo,
		cache:    cache,
		producer: producer,
	}
}

// ResolveRef checks that the caller owns the slot. Page targets always
// resolve to the caller's own page whatever targetID says.
func (s *imageService) ResolveRef(ctx context.Context, email string, target crop.Target, targetID string) (crop.Ref, error) {
	user, err := s.users.resolve(ctx, email)
	if err != nil {
		return crop.Ref{}, err
	}
	page, err := s.pages.GetByUserID(ctx, user.ID)
	if err != nil {
		return crop.Ref{}, err
	}

	ref := crop.Ref{Target: target, UserID: user.ID}
	switch {
	case target == crop.TargetPageBanner || target == crop.TargetPageAvatar:
		ref.ID = page.ID
	case target.IsBlock():
		if targetID == "" {
			return crop.Ref{}, fmt.Errorf("%w: target_id is required for block images", entity.ErrInvalidInput)
		}
		block, err := s.blocks.GetByID(ctx, targetID)
		if err != nil {
			return crop.Ref{}, err
		}
		if block.PageID != page.ID {
			return crop.Ref{}, entity.ErrForbidden
		}
		ref.ID = block.ID
	default:
		return crop.Ref{}, fmt.Errorf("%w: target %q", entity.ErrInvalidInput, target)
	}
	return ref, nil
}

// SetImageReference swaps the URL in the slot and returns the one it
// replaced. Ownership is checked again since the block may have moved or
// been deleted while the session was open.
func (s *imageService) SetImageReference(ctx context.Context, ref crop.Ref, url string) (string, error) {
	user, err := s.users.repo.GetByID(ctx, ref.UserID)
	if err != nil {
		return "", err
	}
	page, err := s.pages.GetByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var previous string
	switch ref.Target {
	case crop.TargetPageBanner, crop.TargetPageAvatar:
		if ref.ID != page.ID {
			return "", entity.ErrForbidden
		}
		if ref.Target == crop.TargetPageBanner {
			previous, err = s.pages.SetBanner(ctx, page.ID, url)
		} else {
			previous, err = s.pages.SetAvatar(ctx, page.ID, url)
		}
	case crop.TargetBlockBanner, crop.TargetBlockImage:
		block, gerr := s.blocks.GetByID(ctx, ref.ID)
		if gerr != nil {
			return "", gerr
		}
		if block.PageID != page.ID {
			return "", entity.ErrForbidden
		}
		if ref.Target == crop.TargetBlockBanner {
			previous, err = s.blocks.SetBanner(ctx, block.ID, url)
		} else {
			previous, err = s.blocks.SetImage(ctx, block.ID, url)
		}
	default:
		return "", fmt.Errorf("%w: target %q", entity.ErrInvalidInput, ref.Target)
	}
	if err != nil {
		return "", err
	}

	invalidate(ctx, s.cache, user.Username)
	logrus.WithFields(logrus.Fields{
		"target":    ref.Target,
		"target_id": ref.ID,
		"url":       url,
	}).Info("image reference updated")
	return previous, nil
}

func (s *imageService) Remove(ctx context.Context, email string, target crop.Target, targetID string) (*entity.ImageRefResponse, error) {
	ref, err := s.ResolveRef(ctx, email, target, targetID)
	if err != nil {
		return nil, err
	}
	previous, err := s.SetImageReference(ctx, ref, "")
	if err != nil {
		return nil, err
	}

	s.Replaced(ctx, ref, previous, "", "")
	return &entity.ImageRefResponse{
		Target:      string(ref.Target),
		TargetID:    ref.ID,
		PreviousURL: previous,
	}, nil
}

// Replaced announces an asset nobody references any more. Delivery failures
// are logged only: the reference change itself has already been committed.
func (s *imageService) Replaced(ctx context.Context, ref crop.Ref, oldURL, newURL, publicID string) {
	if oldURL == "" && publicID == "" {
		return
	}

	event := entity.ImageReplaced{
		Type:      entity.ImageReplacedEvent,
		Target:    string(ref.Target),
		TargetID:  ref.ID,
		OldURL:    oldURL,
		NewURL:    newURL,
		PublicID:  publicID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.producer.SendMessage(ctx, string(ref.Target)+":"+ref.ID, event); err != nil {
		logrus.WithError(err).WithField("old_url", oldURL).Error("failed to publish image.replaced event")
	}
}
