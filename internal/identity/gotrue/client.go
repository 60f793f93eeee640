// Package gotrue consumes the hosted identity backend over its REST API and
// turns its responses into model sessions and session change events.
package gotrue

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/model"
)

// VerifierTTL bounds how long a redirect flow may take to come back.
const VerifierTTL = 10 * time.Minute

// Redirector hands an authorization URL to whoever can open it.
type Redirector interface {
	Redirect(ctx context.Context, authorizeURL string) error
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(ctx context.Context, authorizeURL string) error

func (f RedirectFunc) Redirect(ctx context.Context, authorizeURL string) error {
	return f(ctx, authorizeURL)
}

// Options configure a Client.
type Options struct {
	BaseURL       string
	APIKey        string
	HTTPClient    *http.Client
	Limiter       *rate.Limiter
	Tokens        model.TokenParser
	Cache         model.SessionCache
	Redirector    Redirector
	Providers     []model.OAuthProvider
	RefreshMargin time.Duration
	Logger        *logger.Logger
}

// Client implements model.IdentityProvider.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	limiter       *rate.Limiter
	tokens        model.TokenParser
	cache         model.SessionCache
	redirector    Redirector
	providers     map[model.OAuthProvider]struct{}
	refreshMargin time.Duration
	logger        *logger.Logger
	now           func() time.Time

	mu       sync.Mutex
	session  *model.Session
	loaded   bool
	verifier string
	subs     map[uint64]func(model.SessionEvent)
	nextSub  uint64
}

var _ model.IdentityProvider = (*Client)(nil)

// NewClient creates a Client. Tokens and Logger are required.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	providers := opts.Providers
	if len(providers) == 0 {
		providers = []model.OAuthProvider{model.OAuthGoogle, model.OAuthGitHub}
	}
	allowed := make(map[model.OAuthProvider]struct{}, len(providers))
	for _, p := range providers {
		allowed[p] = struct{}{}
	}
	redirector := opts.Redirector
	if redirector == nil {
		redirector = LogRedirector(opts.Logger)
	}

	return &Client{
		baseURL:       trimBase(opts.BaseURL),
		apiKey:        opts.APIKey,
		httpClient:    httpClient,
		limiter:       limiter,
		tokens:        opts.Tokens,
		cache:         opts.Cache,
		redirector:    redirector,
		providers:     allowed,
		refreshMargin: opts.RefreshMargin,
		logger:        opts.Logger.Component("gotrue"),
		now:           time.Now,
		subs:          make(map[uint64]func(model.SessionEvent)),
	}
}

// LogRedirector asks the operator to open the authorization URL.
func LogRedirector(l *logger.Logger) Redirector {
	return RedirectFunc(func(_ context.Context, authorizeURL string) error {
		l.Info("Identity: open this URL to continue signing in", "url", authorizeURL)
		return nil
	})
}

type userResponse struct {
	ID           uuid.UUID          `json:"id"`
	Email        string             `json:"email"`
	UserMetadata model.UserMetadata `json:"user_metadata"`
}

func (u *userResponse) model() *model.User {
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	return &model.User{ID: u.ID, Email: u.Email, Metadata: u.UserMetadata}
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
}

// signupResponse is either a token response or, pending confirmation, a bare user.
type signupResponse struct {
	tokenResponse
	userResponse
}

// buildResult turns a token response into an AuthResult. Missing pieces are
// left nil for the caller to judge.
func (c *Client) buildResult(tok tokenResponse) (model.AuthResult, error) {
	result := model.AuthResult{User: tok.User.model()}
	if tok.AccessToken == "" {
		return result, nil
	}

	claims, err := c.tokens.ParseAccessToken(tok.AccessToken)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	session := &model.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		SubjectID:    claims.Subject,
		ExpiresAt:    claims.ExpiresAt,
	}
	switch {
	case tok.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(tok.ExpiresAt, 0)
	case tok.ExpiresIn > 0 && session.ExpiresAt.IsZero():
		session.ExpiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if result.User != nil {
		session.User = *result.User
	}

	result.Session = session
	return result, nil
}

// GetSession returns the current session, restoring it from the cache on
// first use and refreshing it when it is about to expire.
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	if c.loaded {
		current := copySession(c.session)
		c.mu.Unlock()
		return c.refreshIfDue(ctx, current)
	}
	c.mu.Unlock()

	var restored *model.Session
	if c.cache != nil {
		var err error
		restored, err = c.cache.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: restore session: %v", model.ErrUnavailable, err)
		}
	}
	if restored != nil && !restored.Valid() {
		c.logger.Warn("Identity: dropping invalid persisted session")
		restored = nil
	}

	c.mu.Lock()
	if !c.loaded {
		c.session = restored
		c.loaded = true
	}
	current := copySession(c.session)
	c.mu.Unlock()

	return c.refreshIfDue(ctx, current)
}

func (c *Client) refreshIfDue(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session == nil || !session.Expired(c.now(), c.refreshMargin) {
		return session, nil
	}
	if session.RefreshToken == "" {
		c.clear(ctx, model.EventSignedOut)
		return nil, nil
	}
	return c.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new session. A rejected refresh
// token ends the session.
func (c *Client) Refresh(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	current := copySession(c.session)
	c.mu.Unlock()
	if current == nil || current.RefreshToken == "" {
		return nil, nil
	}

	var tok tokenResponse
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}},
		map[string]string{"refresh_token": current.RefreshToken}, "", &tok)
	if err != nil {
		if isRejection(err) {
			c.logger.Info("Identity: refresh token rejected, ending session", "error", err.Error())
			c.clear(ctx, model.EventSignedOut)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	result, err := c.buildResult(tok)
	if err != nil {
		return nil, err
	}
	if result.Session == nil {
		return nil, fmt.Errorf("failed to refresh session: empty token response")
	}
	if result.User == nil {
		result.Session.User = current.User
	}

	c.store(ctx, result.Session, model.EventTokenRefreshed)
	return copySession(result.Session), nil
}

// AutoRefresh refreshes the session before it expires until ctx is done.
func (c *Client) AutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			due := c.session != nil && c.session.Expired(c.now(), c.refreshMargin)
			c.mu.Unlock()
			if !due {
				continue
			}
			if _, err := c.Refresh(ctx); err != nil {
				c.logger.Warn("Identity: scheduled refresh failed", "error", err.Error())
			}
		}
	}
}

// OnSessionChange registers handler for session change events. Handlers run
// synchronously on the goroutine that changed the session and must not block.
func (c *Client) OnSessionChange(handler func(model.SessionEvent)) model.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = handler
	return &subscription{client: c, id: id}
}

type subscription struct {
	client *Client
	id     uint64
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.subs, s.id)
		s.client.mu.Unlock()
	})
}

// SignInWithPassword signs in with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (model.AuthResult, error) {
	var tok tokenResponse
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}},
		map[string]string{"email": email, "password": password}, "", &tok)
	if err != nil {
		return model.AuthResult{}, err
	}

	result, err := c.buildResult(tok)
	if err != nil {
		return model.AuthResult{}, err
	}
	if result.Session.Valid() {
		c.store(ctx, result.Session, model.EventSignedIn)
	}
	return result, nil
}

// SignUp registers a user. Without auto-confirmation the result carries no session.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata model.UserMetadata) (model.AuthResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	var resp signupResponse
	if err := c.do(ctx, http.MethodPost, "/signup", nil, body, "", &resp); err != nil {
		return model.AuthResult{}, err
	}

	tok := resp.tokenResponse
	if tok.User == nil && resp.userResponse.ID != uuid.Nil {
		u := resp.userResponse
		tok.User = &u
	}

	result, err := c.buildResult(tok)
	if err != nil {
		return model.AuthResult{}, err
	}
	if result.Session.Valid() {
		c.store(ctx, result.Session, model.EventSignedIn)
	}
	return result, nil
}

// SignOut revokes the session remotely. The local session is dropped even
// when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	var accessToken string
	if c.session != nil {
		accessToken = c.session.AccessToken
	}
	c.mu.Unlock()

	var remoteErr error
	if accessToken != "" {
		remoteErr = c.do(ctx, http.MethodPost, "/logout", nil, nil, accessToken, nil)
	}

	c.clear(ctx, model.EventSignedOut)

	if remoteErr != nil {
		return fmt.Errorf("failed to sign out: %w", remoteErr)
	}
	return nil
}

// SignInWithOAuth starts a PKCE redirect flow. The session arrives later
// through CompleteRedirect and a SIGNED_IN event.
func (c *Client) SignInWithOAuth(ctx context.Context, provider model.OAuthProvider, redirectTo string) error {
	if _, ok := c.providers[provider]; !ok {
		return fmt.Errorf("%w: unsupported provider %q", model.ErrInvalidInput, provider)
	}

	verifier, challenge, err := newPKCE()
	if err != nil {
		return err
	}
	if err := c.saveVerifier(ctx, verifier); err != nil {
		return err
	}

	q := url.Values{
		"provider":              {string(provider)},
		"redirect_to":           {redirectTo},
		"code_challenge":        {challenge},
		"code_challenge_method": {"s256"},
	}
	return c.redirector.Redirect(ctx, c.baseURL+"/authorize?"+q.Encode())
}

// CompleteRedirect finishes a redirect flow from the callback URL.
func (c *Client) CompleteRedirect(ctx context.Context, callback *url.URL) (*model.Session, error) {
	q := callback.Query()
	if errCode := q.Get("error"); errCode != "" {
		msg := q.Get("error_description")
		if msg == "" {
			msg = errCode
		}
		return nil, &model.ProviderError{Status: http.StatusBadRequest, Code: errCode, Message: msg}
	}

	code := q.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: callback carries no authorization code", model.ErrInvalidInput)
	}

	verifier, err := c.takeVerifier(ctx)
	if err != nil {
		return nil, err
	}
	if verifier == "" {
		return nil, fmt.Errorf("%w: no pending redirect flow", model.ErrInvalidInput)
	}

	var tok tokenResponse
	err = c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"pkce"}},
		map[string]string{"auth_code": code, "code_verifier": verifier}, "", &tok)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	result, err := c.buildResult(tok)
	if err != nil {
		return nil, err
	}
	if !result.Session.Valid() {
		return nil, fmt.Errorf("failed to exchange authorization code: incomplete session")
	}

	event := model.EventSignedIn
	if q.Get("type") == "recovery" {
		event = model.EventPasswordRecovery
	}
	c.store(ctx, result.Session, event)
	return copySession(result.Session), nil
}

// ResetPasswordForEmail sends a recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if err := c.do(ctx, http.MethodPost, "/recover", q, map[string]string{"email": email}, "", nil); err != nil {
		return fmt.Errorf("failed to request password reset: %w", err)
	}
	return nil
}

func (c *Client) store(ctx context.Context, session *model.Session, event model.EventType) {
	if c.cache != nil {
		if err := c.cache.Save(ctx, session); err != nil {
			c.logger.Warn("Identity: failed to persist session", "error", err.Error())
		}
	}

	c.mu.Lock()
	c.session = copySession(session)
	c.loaded = true
	c.mu.Unlock()

	c.emit(model.SessionEvent{Type: event, Session: copySession(session)})
}

func (c *Client) clear(ctx context.Context, event model.EventType) {
	if c.cache != nil {
		if err := c.cache.Delete(ctx); err != nil {
			c.logger.Warn("Identity: failed to delete persisted session", "error", err.Error())
		}
	}

	c.mu.Lock()
	c.session = nil
	c.loaded = true
	c.mu.Unlock()

	c.emit(model.SessionEvent{Type: event})
}

func (c *Client) emit(event model.SessionEvent) {
	c.mu.Lock()
	handlers := make([]func(model.SessionEvent), 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

func (c *Client) saveVerifier(ctx context.Context, verifier string) error {
	if c.cache != nil {
		return c.cache.SaveVerifier(ctx, verifier, VerifierTTL)
	}
	c.mu.Lock()
	c.verifier = verifier
	c.mu.Unlock()
	return nil
}

func (c *Client) takeVerifier(ctx context.Context) (string, error) {
	if c.cache != nil {
		v, err := c.cache.TakeVerifier(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load code verifier: %w", err)
		}
		return v, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.verifier
	c.verifier = ""
	return v, nil
}

func newPKCE() (verifier, challenge string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	return verifier, challengeFor(verifier), nil
}

// challengeFor derives the S256 code challenge of verifier.
func challengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func copySession(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
