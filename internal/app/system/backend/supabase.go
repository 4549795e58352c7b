package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meeralabs/portal/internal/domain/models"
	"golang.org/x/oauth2"
)

// Supabase talks to a hosted Supabase project: GoTrue for auth and PostgREST
// for the interactions table.
type Supabase struct {
	base    *url.URL
	anonKey string
	hc      *http.Client
	limit   int
}

// NewSupabase builds the adapter. hc may be nil (http.DefaultClient).
// limit caps FetchInteractions (<= 0 means no cap).
func NewSupabase(rawURL, anonKey string, limit int, hc *http.Client) (*Supabase, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("supabase url must be absolute http(s), got %q", rawURL)
	}
	if anonKey == "" {
		return nil, errors.New("supabase anon key is empty")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Supabase{base: u, anonKey: anonKey, hc: hc, limit: limit}, nil
}

func (s *Supabase) Name() string { return KindSupabase }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// SignIn uses the password grant.
func (s *Supabase) SignIn(ctx context.Context, email, password string) (*oauth2.Token, error) {
	body := map[string]string{"email": email, "password": password}
	var tr tokenResponse
	status, err := s.do(ctx, s.hc, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"password"}}, body, &tr)
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access_token", ErrUnavailable)
	}

	tok := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// Client returns a session client whose requests carry token as a bearer credential.
func (s *Supabase) Client(token string) Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.hc)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &supabaseClient{s: s, token: token, hc: oauth2.NewClient(ctx, src)}
}

// Ping checks the auth service health endpoint.
func (s *Supabase) Ping(ctx context.Context) error {
	_, err := s.do(ctx, s.hc, http.MethodGet, "/auth/v1/health", nil, nil, nil)
	return err
}

// do sends one request with the project's apikey header and decodes a JSON
// response into out. It returns the HTTP status (0 on transport failure).
// Non-2xx responses yield an error; 5xx and transport errors wrap ErrUnavailable.
func (s *Supabase) do(ctx context.Context, hc *http.Client, method, path string, q url.Values, in, out any) (int, error) {
	u := *s.base
	u.Path = s.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

type supabaseClient struct {
	s     *Supabase
	token string
	hc    *http.Client
}

func (c *supabaseClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	if c.token == "" {
		return nil, nil
	}
	var u struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	status, err := c.s.do(ctx, c.hc, http.MethodGet, "/auth/v1/user", nil, nil, &u)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.ID == "" {
		return nil, nil
	}
	return &models.Identity{ID: u.ID, Email: u.Email}, nil
}

func (c *supabaseClient) SignOut(ctx context.Context) error {
	if c.token == "" {
		return ErrNoSession
	}
	status, err := c.s.do(ctx, c.hc, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	if status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// interactionRow mirrors a PostgREST row. id may be a bigint or a uuid, and
// timestamp may or may not carry a zone offset depending on the column type.
type interactionRow struct {
	ID        json.RawMessage `json:"id"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
}

func (c *supabaseClient) FetchInteractions(ctx context.Context) ([]models.Interaction, error) {
	if c.token == "" {
		return nil, ErrNoSession
	}
	q := url.Values{
		"select": {"id,content,timestamp"},
		"order":  {"timestamp.desc"},
	}
	if c.s.limit > 0 {
		q.Set("limit", strconv.Itoa(c.s.limit))
	}

	var rows []interactionRow
	status, err := c.s.do(ctx, c.hc, http.MethodGet, "/rest/v1/interactions", q, nil, &rows)
	if status == http.StatusUnauthorized {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}

	out := make([]models.Interaction, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("interaction %s: %w", rawID(row.ID), err)
		}
		out = append(out, models.Interaction{
			ID:        rawID(row.ID),
			Content:   row.Content,
			Timestamp: ts,
		})
	}
	return out, nil
}

func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts timestamptz and plain timestamp renderings.
// Values without an offset are taken as UTC. A null or empty column yields
// the zero time, which renders without a date.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
