package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// DefaultSubjects always exist and cannot be deleted.
var DefaultSubjects = []string{"Math", "History", "Science", "Literature"}

func IsDefaultSubject(name string) bool {
	for _, d := range DefaultSubjects {
		if d == name {
			return true
		}
	}
	return false
}

func userQuery(user string) url.Values {
	if user == "" {
		user = Guest
	}
	return url.Values{"user": {user}}
}

func (c *Client) ListSubjects(ctx context.Context, user string) ([]string, error) {
	var out struct {
		Subjects []string `json:"subjects"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/subjects", userQuery(user), nil, &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

// CreateSubject returns the trimmed name that was stored.
func (c *Client) CreateSubject(ctx context.Context, name, user string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Msg: "Subject name is required"}
	}
	if user == "" {
		user = Guest
	}
	body := map[string]string{"subject": name, "user": user}
	if err := c.do(ctx, http.MethodPost, "/api/subjects", nil, body, nil); err != nil {
		return "", err
	}
	return name, nil
}

func (c *Client) DeleteSubject(ctx context.Context, name, user string) error {
	if IsDefaultSubject(name) {
		return &ValidationError{Msg: "Cannot delete default subjects."}
	}
	return c.do(ctx, http.MethodDelete, "/api/subjects/"+url.PathEscape(name), userQuery(user), nil, nil)
}
