package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"genmedia-backend/internal/models"
)

// ProfileStore reads subscription fields from the profiles table over
// PostgREST.
type ProfileStore struct {
	client *supabase.Client
}

func NewProfileStore(client *Client) *ProfileStore {
	return &ProfileStore{client: client.Supabase}
}

func (p *ProfileStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile models.Profile
	_, err := p.client.
		From("profiles").
		Select("id, subscription_tier, subscription_status", "", false).
		Eq("id", userID.String()).
		Single().
		ExecuteTo(&profile)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}
