// Package httpapi implements the remote.Client contract over plain
// JSON-over-HTTP against the game authority.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tapcraft/clickercore/internal/remote"
)

// Authority endpoints, relative to the base URL.
const (
	pathGetMe           = "/clicker/get-me"
	pathCreateUser      = "/clicker/create-user"
	pathUpdateLastLogin = "/clicker/update-last-login"
	pathUpdateEnergy    = "/clicker/update-energy"
	pathUpdateBalance   = "/clicker/update-balance"
	pathUpdateBoost     = "/clicker/update-boost"
	pathUpdateAbility   = "/clicker/update-ability"
	pathClaimReferral   = "/clicker/referral-claim-reward"
)

// Headers attached to every request.
const (
	headerInitData  = "X-Init-Data"
	headerRequestID = "X-Request-Id"
)

const defaultTimeout = 10 * time.Second

// Client posts engine state to the authority. The init-data token is
// attached to every request; its contents are opaque here.
type Client struct {
	baseURL  string
	initData string
	http     *http.Client
}

// New returns a client for the authority at baseURL, authenticating
// every call with the given init-data token.
func New(baseURL, initData string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		initData: initData,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithHTTPClient is New with a caller-supplied *http.Client,
// used by tests and by callers that need custom transports.
func NewWithHTTPClient(baseURL, initData string, hc *http.Client) *Client {
	c := New(baseURL, initData)
	c.http = hc

	return c
}

// envelope is the common response wrapper: an ok indicator plus an
// endpoint-specific payload flattened alongside it.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	User         *remote.User      `json:"user,omitempty"`
	ActiveEnergy *float64          `json:"activeEnergy,omitempty"`
	Balance      *int64            `json:"balance,omitempty"`
	Abilities    *remote.Abilities `json:"abilities,omitempty"`
	Referrals    []remote.Referral `json:"referrals,omitempty"`
}

func (c *Client) FetchUser(ctx context.Context) (remote.User, error) {
	env, err := c.post(ctx, pathGetMe, struct{}{}, "")
	if err != nil {
		return remote.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if env.User == nil {
		return remote.User{}, fmt.Errorf("fetch user: authority returned no user")
	}

	return *env.User, nil
}

func (c *Client) CreateUser(ctx context.Context, referrerID int64) (remote.User, error) {
	req := struct {
		ReferrerID int64 `json:"referrerId,omitempty"`
	}{ReferrerID: referrerID}

	env, err := c.post(ctx, pathCreateUser, req, "")
	if err != nil {
		return remote.User{}, fmt.Errorf("create user: %w", err)
	}
	if env.User == nil {
		return remote.User{}, fmt.Errorf("create user: authority returned no user")
	}

	return *env.User, nil
}

func (c *Client) UpdateLastLogin(ctx context.Context) error {
	_, err := c.post(ctx, pathUpdateLastLogin, struct{}{}, "")
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

func (c *Client) UpdateEnergy(ctx context.Context, active int64) (float64, error) {
	req := struct {
		ActiveEnergy int64 `json:"activeEnergy"`
	}{ActiveEnergy: active}

	env, err := c.post(ctx, pathUpdateEnergy, req, "")
	if err != nil {
		return 0, fmt.Errorf("update energy: %w", err)
	}

	if env.ActiveEnergy != nil {
		return *env.ActiveEnergy, nil
	}

	// No authoritative correction: the reported value stands.
	return float64(active), nil
}

func (c *Client) UpdateBalance(ctx context.Context, delta int64, requestID string) error {
	req := struct {
		Balance int64 `json:"balance"`
	}{Balance: delta}

	_, err := c.post(ctx, pathUpdateBalance, req, requestID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	return nil
}

func (c *Client) UpdateBoost(ctx context.Context, lastBoostRun int64) error {
	req := struct {
		LastBoostRun int64 `json:"lastBoostRun"`
	}{LastBoostRun: lastBoostRun}

	_, err := c.post(ctx, pathUpdateBoost, req, "")
	if err != nil {
		return fmt.Errorf("update boost: %w", err)
	}

	return nil
}

func (c *Client) UpdateAbility(ctx context.Context, ability string) (remote.UpgradeResult, error) {
	req := struct {
		AbilityType string `json:"abilityType"`
	}{AbilityType: ability}

	env, err := c.post(ctx, pathUpdateAbility, req, "")
	if err != nil {
		return remote.UpgradeResult{}, fmt.Errorf("update ability: %w", err)
	}
	if env.Balance == nil || env.Abilities == nil {
		return remote.UpgradeResult{}, fmt.Errorf("update ability: incomplete response")
	}

	res := remote.UpgradeResult{
		Balance:   *env.Balance,
		Abilities: *env.Abilities,
	}
	if env.ActiveEnergy != nil {
		res.ActiveEnergy = *env.ActiveEnergy
	}

	return res, nil
}

func (c *Client) ClaimReferralReward(ctx context.Context, referredUserID int64) (remote.ClaimResult, error) {
	req := struct {
		ReferredUserID int64 `json:"referredUserId"`
	}{ReferredUserID: referredUserID}

	env, err := c.post(ctx, pathClaimReferral, req, "")
	if err != nil {
		return remote.ClaimResult{}, fmt.Errorf("claim referral reward: %w", err)
	}
	if env.Balance == nil {
		return remote.ClaimResult{}, fmt.Errorf("claim referral reward: incomplete response")
	}

	return remote.ClaimResult{
		Balance:   *env.Balance,
		Referrals: env.Referrals,
	}, nil
}

// post sends one JSON request and decodes the common envelope,
// mapping transport status and the ok indicator to sentinel errors.
// An empty requestID gets a fresh id; callers retrying a logical
// operation pass their own so the authority can recognize repeats.
func (c *Client) post(ctx context.Context, path string, payload any, requestID string) (envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return envelope{}, fmt.Errorf("join url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerInitData, c.initData)

	if requestID == "" {
		requestID = uuid.NewString()
	}

	req.Header.Set(headerRequestID, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return envelope{}, remote.ErrUnauthorized
	case http.StatusNotFound:
		return envelope{}, remote.ErrUserNotFound
	}

	var env envelope

	err = json.NewDecoder(resp.Body).Decode(&env)
	if err != nil {
		return envelope{}, fmt.Errorf("decode %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK || !env.OK {
		if env.Error != "" {
			return envelope{}, fmt.Errorf("%w: %s", remote.ErrRejected, env.Error)
		}

		return envelope{}, fmt.Errorf("%w: status %d", remote.ErrRejected, resp.StatusCode)
	}

	return env, nil
}
