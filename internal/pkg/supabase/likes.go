package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/supabase-community/postgrest-go"

	"github.com/DimosMssd/dating-app/internal/models"
)

type likeRecord struct {
	UserID    int64 `json:"user_id"`
	ProfileID int64 `json:"profile_id"`
}

// rpcResult decodes either the returned profiles row or a PostgREST error
type rpcResult struct {
	profileRecord
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Store) LikeExists(ctx context.Context, userID, profileID int64) (bool, error) {
	const op = "supabase.LikeExists"

	var rows []struct {
		ID int64 `json:"id"`
	}
	err := s.execute(ctx, op, func(c *postgrest.Client) error {
		_, err := c.From(likesTable).
			Select("id", "", false).
			Eq("user_id", strconv.FormatInt(userID, 10)).
			Eq("profile_id", strconv.FormatInt(profileID, 10)).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *Store) InsertLike(ctx context.Context, userID, profileID int64) error {
	const op = "supabase.InsertLike"

	return s.execute(ctx, op, func(c *postgrest.Client) error {
		_, _, err := c.From(likesTable).
			Insert(likeRecord{UserID: userID, ProfileID: profileID}, false, "", "minimal", "").
			Execute()
		return translate(err)
	})
}

func (s *Store) LikedProfileIDs(ctx context.Context, userID int64) ([]int64, error) {
	const op = "supabase.LikedProfileIDs"

	var rows []likeRecord
	err := s.execute(ctx, op, func(c *postgrest.Client) error {
		_, err := c.From(likesTable).
			Select("profile_id", "", false).
			Eq("user_id", strconv.FormatInt(userID, 10)).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProfileID)
	}
	return ids, nil
}

// LikeOnce calls the like_profile function, which inserts the like and
// bumps the counter in one transaction
func (s *Store) LikeOnce(ctx context.Context, userID, profileID int64) (*models.Profile, error) {
	const op = "supabase.LikeOnce"

	var result rpcResult
	err := s.execute(ctx, op, func(c *postgrest.Client) error {
		body := c.Rpc(likeFunction, "", map[string]int64{
			"p_user_id":    userID,
			"p_profile_id": profileID,
		})
		if c.ClientError != nil {
			return c.ClientError
		}
		if body == "" {
			return errors.New("empty rpc response")
		}
		if err := json.Unmarshal([]byte(body), &result); err != nil {
			return fmt.Errorf("decode rpc response: %w", err)
		}
		if result.Code != "" {
			return translate(fmt.Errorf("(%s) %s", result.Code, result.Message))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result.toModel(), nil
}
