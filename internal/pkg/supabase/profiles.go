package supabase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/DimosMssd/dating-app/internal/models"
	"github.com/DimosMssd/dating-app/internal/storage"
)

// profileRecord is the wire shape of a profiles row. It differs from
// models.Profile in that the password is serialized.
type profileRecord struct {
	ID        int64     `json:"id,omitempty"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Bio       *string   `json:"bio"`
	Interests []string  `json:"interests"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (r profileRecord) toModel() *models.Profile {
	return &models.Profile{
		ID:        r.ID,
		Username:  r.Username,
		Password:  r.Password,
		Name:      r.Name,
		Age:       r.Age,
		Bio:       r.Bio,
		Interests: r.Interests,
		Likes:     r.Likes,
		CreatedAt: r.CreatedAt,
	}
}

// insertRecord omits the store-assigned columns
type insertRecord struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Bio       *string  `json:"bio"`
	Interests []string `json:"interests"`
	Likes     int      `json:"likes"`
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	const op = "supabase.ListProfiles"

	var rows []profileRecord
	err := s.execute(ctx, op, func(c *postgrest.Client) error {
		_, err := c.From(profilesTable).
			Select("*", "", false).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	profiles := make([]models.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, *r.toModel())
	}
	return profiles, nil
}

func (s *Store) ProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	return s.profileBy(ctx, "supabase.ProfileByID", "id", strconv.FormatInt(id, 10))
}

func (s *Store) ProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.profileBy(ctx, "supabase.ProfileByUsername", "username", username)
}

// profileBy returns the first row where column equals value. An empty
// result is ErrNotFound.
func (s *Store) profileBy(ctx context.Context, op, column, value string) (*models.Profile, error) {
	var rows []profileRecord
	err := s.execute(ctx, op, func(c *postgrest.Client) error {
		_, err := c.From(profilesTable).
			Select("*", "", false).
			Eq(column, value).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

func (s *Store) InsertProfile(ctx context.Context, np models.NewProfile) (*models.Profile, error) {
	const op = "supabase.InsertProfile"

	record := insertRecord{
		Username:  np.Username,
		Password:  np.PasswordHash,
		Name:      np.Name,
		Age:       np.Age,
		Bio:       np.Bio,
		Interests: np.Interests,
	}

	var rows []profileRecord
	err := s.execute(ctx, op, func(c *postgrest.Client) error {
		_, err := c.From(profilesTable).
			Insert(record, false, "", "representation", "").
			ExecuteTo(&rows)
		return translate(err)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: insert returned no row", op)
	}
	return rows[0].toModel(), nil
}

// IncrementLikes reads the counter and writes counter+1 in two requests
func (s *Store) IncrementLikes(ctx context.Context, id int64) (*models.Profile, error) {
	const op = "supabase.IncrementLikes"

	current, err := s.ProfileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []profileRecord
	err = s.execute(ctx, op, func(c *postgrest.Client) error {
		_, err := c.From(profilesTable).
			Update(map[string]int{"likes": current.Likes + 1}, "representation", "").
			Eq("id", strconv.FormatInt(id, 10)).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return rows[0].toModel(), nil
}
