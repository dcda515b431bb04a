package client

import "context"

const gamificationPath = "/api/admin/gamification"

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   ID     `json:"user_id"`
	Name     string `json:"name"`
	UserType string `json:"user_type"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
}

type Badge struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Points      int    `json:"points"`
}

// GetLeaderboard returns the ranking for one user type (client, courier or restaurant); empty means all
func (c *Client) GetLeaderboard(ctx context.Context, userType string, limit int) ([]LeaderboardEntry, error) {
	q := Query{{Key: "user_type", Value: userType}}
	if limit > 0 {
		q = q.Add("limit", limit)
	}
	return list[LeaderboardEntry](ctx, c, gamificationPath+"/leaderboard", q)
}

func (c *Client) ListBadges(ctx context.Context) ([]Badge, error) {
	return list[Badge](ctx, c, gamificationPath+"/badges", nil)
}
