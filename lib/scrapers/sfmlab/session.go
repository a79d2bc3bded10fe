package sfmlab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sfmhub-backend/lib/catalog"
	"sfmhub-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// sessions are renewed this far ahead of their actual expiry
const renewalMargin = time.Hour * 24

const (
	sessionCookieName  = "sessionid"
	messagesCookieName = "messages"
)

// Session owns the cookie state for the authenticated origin. There
// is exactly one live session per process; renewal is serialized
// behind the mutex so concurrent requests observing a stale session
// await one renewal instead of racing to authenticate twice. The
// cookie set is never written onto a shared client: Ensure hands out
// an immutable snapshot that callers attach per request, so a renewal
// can run while earlier snapshots are still in flight.
type Session struct {
	mu sync.Mutex

	// a dedicated client for the login flow: no jar, and the
	// post-login redirect must not be followed because the set-cookie
	// headers live on the redirect response itself
	login *resty.Client

	username string
	password string

	cookies       []*http.Cookie
	authenticated bool
	expiresAt     time.Time
	// a failed login latches: credentials will not fix themselves, so
	// every subsequent call fails fast instead of hammering the origin
	fatal error
}

func NewSession(baseURL, username, password string) (*Session, error) {
	login := resty.New()
	login.SetBaseURL(baseURL)
	login.SetHeader("user-agent", restyutil.UserAgent)
	login.SetTimeout(time.Second * 30)
	login.SetRedirectPolicy(resty.NoRedirectPolicy())
	login.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(login.GetClient().Transport)

	return &Session{
		login:    login,
		username: username,
		password: password,
	}, nil
}

// Ensure makes the session usable before an authenticated request is
// sent: it logs in lazily on first use and renews proactively when
// the expiry is within renewalMargin of now. The caller that triggers
// a renewal waits for it. The returned cookies are a snapshot owned
// by the caller; later renewals never touch it.
func (s *Session) Ensure(ctx context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fatal != nil {
		return nil, s.fatal
	}
	if s.authenticated && time.Until(s.expiresAt) > renewalMargin {
		return s.snapshot(), nil
	}

	s.wipe()
	err := s.authenticate(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrAuthenticationFailure) {
			s.fatal = err
		}
		return nil, err
	}
	return s.snapshot(), nil
}

// callers must hold s.mu
func (s *Session) snapshot() []*http.Cookie {
	out := make([]*http.Cookie, len(s.cookies))
	copy(out, s.cookies)
	return out
}

// wipe discards the cookie set wholesale, there is no partial renewal
func (s *Session) wipe() {
	s.cookies = nil
	s.authenticated = false
	s.expiresAt = time.Time{}
}

func (s *Session) authenticate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:authenticate")
	defer span.End()

	res, err := s.login.R().
		SetContext(ctx).
		Get("/accounts/login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login form")
		return fmt.Errorf("%w: fetch login form: %v", catalog.ErrSourceUnavailable, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login form")
		return fmt.Errorf("%w: parse login form: %v", catalog.ErrAuthenticationFailure, err)
	}

	token := doc.Find("input[name=csrfmiddlewaretoken]").AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, "failed to find csrf token")
		return fmt.Errorf("%w: could not find csrf token on login form", catalog.ErrAuthenticationFailure)
	}

	res, err = s.login.R().
		SetContext(ctx).
		SetCookies(res.Cookies()).
		SetQueryParam("next", "/").
		SetFormData(map[string]string{
			"login":               s.username,
			"password":            s.password,
			"csrfmiddlewaretoken": token,
		}).
		Post("/accounts/login/")
	// the no-redirect policy reports the post-login redirect as an
	// error while still handing back the redirect response
	if res == nil || res.RawResponse == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return fmt.Errorf("%w: submit login form: %v", catalog.ErrSourceUnavailable, err)
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "login rejected")
		return fmt.Errorf("%w: login rejected with status %d", catalog.ErrAuthenticationFailure, res.StatusCode())
	}

	var sessionCookie *http.Cookie
	var messagesCookie *http.Cookie
	cookies := res.Cookies()
	for _, c := range cookies {
		switch c.Name {
		case sessionCookieName:
			sessionCookie = c
		case messagesCookieName:
			messagesCookie = c
		}
	}
	if sessionCookie == nil || messagesCookie == nil {
		span.SetStatus(codes.Error, "login response missing session cookies")
		return fmt.Errorf("%w: login response missing session cookies", catalog.ErrAuthenticationFailure)
	}

	s.cookies = cookies

	expiry := sessionCookie.Expires
	if expiry.IsZero() {
		// django's default session age when the cookie carries no
		// explicit expiry
		expiry = time.Now().Add(time.Hour * 24 * 14)
	}
	s.expiresAt = expiry
	s.authenticated = true

	return nil
}
