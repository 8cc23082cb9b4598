package service

import (
	"context"
	"testing"

	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_ResolveRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.page(t, "me@example.com")
	theirs := f.page(t, "them@example.com")

	tests := []struct {
		name     string
		target   crop.Target
		targetID string
		wantID   string
		wantErr  error
	}{
		{name: "page banner ignores target id", target: crop.TargetPageBanner, targetID: theirs.ID, wantID: mine.ID},
		{name: "avatar", target: crop.TargetPageAvatar, wantID: mine.ID},
		{name: "own block", target: crop.TargetBlockBanner, targetID: mine.Blocks[0].ID, wantID: mine.Blocks[0].ID},
		{name: "foreign block", target: crop.TargetBlockImage, targetID: theirs.Blocks[0].ID, wantErr: entity.ErrForbidden},
		{name: "missing block", target: crop.TargetBlockImage, targetID: "nope", wantErr: entity.ErrBlockNotFound},
		{name: "block without id", target: crop.TargetBlockBanner, wantErr: entity.ErrInvalidInput},
		{name: "unknown target", target: "gallery", wantErr: entity.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := f.images.ResolveRef(ctx, "me@example.com", tt.target, tt.targetID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ref.ID)
			assert.Equal(t, tt.target, ref.Target)
			assert.Equal(t, mine.UserID, ref.UserID)
		})
	}
}

func TestImageService_SetImageReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.page(t, "me@example.com")
	block := page.Blocks[0]

	ref, err := f.images.ResolveRef(ctx, "me@example.com", crop.TargetBlockBanner, block.ID)
	require.NoError(t, err)

	prev, err := f.images.SetImageReference(ctx, ref, "https://cdn.test/a.jpg")
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = f.images.SetImageReference(ctx, ref, "https://cdn.test/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.jpg", prev)
	assert.Equal(t, "https://cdn.test/b.jpg", f.db.blocks[block.ID].BannerURL)
	assert.Empty(t, f.db.blocks[block.ID].ImageURL)
	assert.Contains(t, f.cache.deletes, page.User.Username)

	// the block went away while the session was open
	require.NoError(t, f.blocks.Delete(ctx, "me@example.com", block.ID))
	_, err = f.images.SetImageReference(ctx, ref, "https://cdn.test/c.jpg")
	assert.ErrorIs(t, err, entity.ErrBlockNotFound)
}

func TestImageService_Remove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := f.page(t, "me@example.com")

	ref, err := f.images.ResolveRef(ctx, "me@example.com", crop.TargetPageAvatar, "")
	require.NoError(t, err)
	_, err = f.images.SetImageReference(ctx, ref, "https://cdn.test/avatar.jpg")
	require.NoError(t, err)

	resp, err := f.images.Remove(ctx, "me@example.com", crop.TargetPageAvatar, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatar.jpg", resp.PreviousURL)
	assert.Empty(t, f.db.pages[page.ID].Avatar)

	events := f.producer.sent()
	require.Len(t, events, 1)
	assert.Equal(t, entity.ImageReplacedEvent, events[0].Type)
	assert.Equal(t, "https://cdn.test/avatar.jpg", events[0].OldURL)
	assert.Equal(t, string(crop.TargetPageAvatar), events[0].Target)

	// nothing to remove, nothing to announce
	_, err = f.images.Remove(ctx, "me@example.com", crop.TargetPageAvatar, "")
	require.NoError(t, err)
	assert.Len(t, f.producer.sent(), 1)
}
