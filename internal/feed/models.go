package feed

import (
	"encoding/json"
	"fmt"
)

const avatarBase = "https://dh2hr12bc8685.cloudfront.net/profile_staging/"

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvatarURL is the medium profile picture of the author.
func (a Author) AvatarURL() string { return avatarBase + a.ID + "/medium.jpg" }

type Post struct {
	PostID        string `json:"postId"`
	Content       string `json:"content"`
	Timestamp     string `json:"timestamp"`
	CommentsTotal int    `json:"commentsTotal"`
	Author        Author `json:"author"`
}

type Group struct {
	GroupID     string `json:"groupId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Admin       string `json:"admin"`
	Avatar      string `json:"avatar"`
	Banner      string `json:"banner"`
	IsMember    bool   `json:"isMember"`
}

// decode converts a result value into T through its JSON form.
func decode[T any](v any) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("feed: decode %T: %w", out, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("feed: decode %T: %w", out, err)
	}
	return out, nil
}
