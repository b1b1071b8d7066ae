package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

const maxErrorBody = 4 << 10

var (
	// ErrNotFound is returned when the API cannot find the requested record.
	ErrNotFound = errors.New("backend: not found")
	// ErrUnauthorized is returned for rejected credentials or tokens.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrRejected is returned when the API refuses a payload (duplicate
	// username, unknown movie id, ...).
	ErrRejected = errors.New("backend: request rejected")
)

// StatusError carries an unexpected HTTP status from the API.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend: upstream returned %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("backend: upstream returned %d", e.Code)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrRejected:
		return e.Code == http.StatusBadRequest || e.Code == http.StatusConflict || e.Code == http.StatusUnprocessableEntity
	}
	return false
}

// LoginResult is the token pair issued by the login endpoint.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Client defines the contract for talking to the remote catalog API.
type Client interface {
	ListMovies(ctx context.Context) ([]domain.MovieSummary, error)
	GetMovie(ctx context.Context, id int) (domain.MovieDetail, error)
	SearchMovies(ctx context.Context, title string) ([]domain.SearchResult, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, token string, id int, username string) (domain.User, error)
	ListFriends(ctx context.Context, userID int) ([]domain.User, error)
	AddFriend(ctx context.Context, token string, userID, friendID int) error
	ListReviews(ctx context.Context) ([]domain.Review, error)
	CreateReview(ctx context.Context, token string, draft domain.ReviewDraft) (domain.Review, error)
	Signup(ctx context.Context, username, password string) (domain.User, error)
	Login(ctx context.Context, username, password string) (LoginResult, error)
	ListMarks(ctx context.Context, token string, userID int, kind domain.MarkKind) ([]int, error)
	SetMark(ctx context.Context, token string, userID, movieID int, kind domain.MarkKind, on bool) error
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	logger  hclog.Logger
}

// NewHTTPClient constructs a new HTTP-backed API client.
func NewHTTPClient(baseURL string, timeout time.Duration, logger hclog.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse backend url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConnsPerHost:   16,
			},
		},
		logger: logger,
	}, nil
}

func (c *HTTPClient) ListMovies(ctx context.Context) ([]domain.MovieSummary, error) {
	var out []domain.MovieSummary
	if err := c.do(ctx, http.MethodGet, "/movies", nil, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) GetMovie(ctx context.Context, id int) (domain.MovieDetail, error) {
	var out domain.MovieDetail
	if err := c.do(ctx, http.MethodGet, "/movies/"+strconv.Itoa(id), nil, "", nil, &out); err != nil {
		return domain.MovieDetail{}, fmt.Errorf("get movie %d: %w", id, err)
	}
	return out, nil
}

func (c *HTTPClient) SearchMovies(ctx context.Context, title string) ([]domain.SearchResult, error) {
	q := url.Values{}
	q.Set("title", title)
	var out []domain.SearchResult
	if err := c.do(ctx, http.MethodGet, "/movies/search/", q, "", nil, &out); err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, token string, id int, username string) (domain.User, error) {
	var out domain.User
	body := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPatch, "/users/"+strconv.Itoa(id), nil, token, body, &out); err != nil {
		return domain.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return out, nil
}

func (c *HTTPClient) ListFriends(ctx context.Context, userID int) ([]domain.User, error) {
	var out []domain.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/friends", userID), nil, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list friends of %d: %w", userID, err)
	}
	return out, nil
}

func (c *HTTPClient) AddFriend(ctx context.Context, token string, userID, friendID int) error {
	body := domain.Friendship{UserID: userID, FriendID: friendID}
	if err := c.do(ctx, http.MethodPost, "/friends", nil, token, body, nil); err != nil {
		return fmt.Errorf("add friend %d for %d: %w", friendID, userID, err)
	}
	return nil
}

func (c *HTTPClient) ListReviews(ctx context.Context) ([]domain.Review, error) {
	var out []domain.Review
	if err := c.do(ctx, http.MethodGet, "/reviews", nil, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) CreateReview(ctx context.Context, token string, draft domain.ReviewDraft) (domain.Review, error) {
	var out domain.Review
	if err := c.do(ctx, http.MethodPost, "/reviews", nil, token, draft, &out); err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	return out, nil
}

type credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// Signup registers a new user. The password is hashed before transmission.
func (c *HTTPClient) Signup(ctx context.Context, username, password string) (domain.User, error) {
	var out domain.User
	body := credentials{Username: username, PasswordHash: HashPassword(password)}
	if err := c.do(ctx, http.MethodPost, "/signup", nil, "", body, &out); err != nil {
		return domain.User{}, fmt.Errorf("signup %q: %w", username, err)
	}
	return out, nil
}

// Login exchanges credentials for a bearer token. The password is hashed
// before transmission.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	body := credentials{Username: username, PasswordHash: HashPassword(password)}
	if err := c.do(ctx, http.MethodPost, "/login", nil, "", body, &out); err != nil {
		return LoginResult{}, fmt.Errorf("login %q: %w", username, err)
	}
	if out.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("login %q: empty access token", username)
	}
	return out, nil
}

func (c *HTTPClient) ListMarks(ctx context.Context, token string, userID int, kind domain.MarkKind) ([]int, error) {
	var out []int
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/%s", userID, kind), nil, token, nil, &out); err != nil {
		return nil, fmt.Errorf("list %s of %d: %w", kind, userID, err)
	}
	return out, nil
}

func (c *HTTPClient) SetMark(ctx context.Context, token string, userID, movieID int, kind domain.MarkKind, on bool) error {
	method := http.MethodPut
	if !on {
		method = http.MethodDelete
	}
	if err := c.do(ctx, method, fmt.Sprintf("/users/%d/%s/%d", userID, kind, movieID), nil, token, nil, nil); err != nil {
		return fmt.Errorf("set %s %d=%t for %d: %w", kind, movieID, on, userID, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, token string, body, out interface{}) error {
	rel := &url.URL{Path: c.baseURL.Path + path}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	endpoint := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
		if resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Warn("unexpected upstream status", "method", method, "path", path, "status", resp.StatusCode)
		}
		return statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// readDetail extracts the "detail" message of an error body, if any.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	return ""
}
