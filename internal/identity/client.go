package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chatgrid/chat-service/pkg/errs"
)

// Profile — поля провайдера идентичности, из которых один раз на коннект
// собирается displayName.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	if p.Username != "" {
		return p.Username
	}
	return p.ID
}

// Resolver валидирует существование пользователя у внешнего провайдера.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (Profile, error)
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func New(opts Options) (Resolver, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("identity client: empty base url")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return &client{
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
	}, nil
}

func (c *client) Resolve(ctx context.Context, userID string) (Profile, error) {
	u := c.baseURL + "/v1/users/" + url.PathEscape(userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("identity client: new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		// неизвестный пользователь — для вызывающего это Unauthorized
		return Profile{}, fmt.Errorf("%w: unknown user %s", errs.ErrUnauthorized, userID)
	case res.StatusCode != http.StatusOK:
		return Profile{}, fmt.Errorf("%w: identity provider status %d", errs.ErrUpstream, res.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("%w: decode profile: %v", errs.ErrUpstream, err)
	}
	return p, nil
}
