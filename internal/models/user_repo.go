package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"golang.org/x/sync/errgroup"
)

const (
	ProfileTable = "profiles"

	lookupBatchSize = 100
)

func (su *SupabaseRepo) CreateUser(ctx context.Context, user *User) (*types.SignupResponse, error) {
	signed := types.SignupRequest{
		Email:    user.Email,
		Password: user.Password,
		Data: map[string]interface{}{
			"name":     user.FullName,
			"fullname": user.FullName,
		},
	}

	res, err := su.supabaseClient.Auth.Signup(signed)
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "already registered") {
			return nil, ValidationError("email already in use")
		}
		if strings.Contains(errMsg, "null value in column") {
			return nil, ValidationError("required field is missing")
		}
		if strings.Contains(errMsg, "unique constraint") {
			return nil, ValidationError("user already exists")
		}
		if strings.Contains(errMsg, "invalid input syntax") {
			return nil, ValidationError("invalid input format")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return res, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %v", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %v", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id string, accessToken string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	raw, status, err := client.From(ProfileTable).
		Select("id,email,username,fullname,role,avatar_url,created_at,updated_at", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %v", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return &users[0], nil
}

// LookupUsers reads display fields for ids from the profiles table. Large id
// sets are split into batches that are queried concurrently.
func (su *SupabaseRepo) LookupUsers(ctx context.Context, ids []string) (map[string]UserSummary, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}

	out := make(map[string]UserSummary, len(valid))
	if len(valid) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(valid); start += lookupBatchSize {
		end := min(start+lookupBatchSize, len(valid))
		batch := valid[start:end]
		g.Go(func() error {
			raw, _, err := su.supabaseClient.From(ProfileTable).
				Select("id,email,username,fullname", "", false).
				In("id", batch).
				Execute()
			if err != nil {
				return fmt.Errorf("failed to look up profiles: %w", err)
			}

			var users []User
			if err := json.Unmarshal(raw, &users); err != nil {
				return fmt.Errorf("failed to unmarshal profiles: %w", err)
			}

			mu.Lock()
			defer mu.Unlock()
			for i := range users {
				u := &users[i]
				out[u.ID] = UserSummary{ID: u.ID, Name: u.DisplayName(), Email: u.Email}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
