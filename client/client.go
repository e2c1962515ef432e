package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/common"
	"github.com/meterflow/greenchoice_adapter/config"
	"github.com/meterflow/greenchoice_adapter/internal/auth"
	"github.com/meterflow/greenchoice_adapter/internal/cache"
)

// DefaultBaseURL is the customer portal endpoint.
const DefaultBaseURL = "https://mijn.greenchoice.nl"

// profileCacheKey is the memoization key for the account profile lookup.
// The profile is stable for the lifetime of a session, so it is resolved
// once per login instead of once per poll.
const profileCacheKey = "profile"

// SessionClient authenticates against the portal and fetches meter data.
// It owns the session cookie exclusively; the only shared mutable state is
// the session itself, guarded by mu so a transparent re-login never races
// a request.
type SessionClient struct {
	baseURL string
	creds   *auth.Credentials
	logger  *zap.Logger

	httpClient *http.Client

	mu            sync.Mutex
	authenticated bool
	lookups       cache.Cache

	// now is swapped out by tests that pin the reading year
	now func() time.Time
}

// Rates is the tariff snapshot for the account's current contract.
type Rates struct {
	ElectricityPriceSingle float64
	ElectricityPriceLow    float64
	ElectricityPriceHigh   float64
	FeedInRefund           float64
	GasPrice               float64
	HasElectricity         bool
	HasGas                 bool
}

// NewSessionClient creates a client for one account. The credential holder
// is owned exclusively by this client.
func NewSessionClient(creds *auth.Credentials, cfg *config.Config) (*SessionClient, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &SessionClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		logger:  cfg.GetLogger(),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: cfg.HTTPTimeout,
		},
		lookups: cache.NewMemoryCache(cache.Config{}),
		now:     time.Now,
	}, nil
}

// Login performs the portal's OIDC form flow: fetch the login page, post
// the credentials with the anti-forgery token, then replay the OIDC
// callback values to obtain the session cookie. A rejected login surfaces
// ErrAuthentication and is never retried here.
func (c *SessionClient) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

// login must be called with mu held.
func (c *SessionClient) login(ctx context.Context) error {
	// Discard any previous session before starting over.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to reset cookie jar: %w", err)
	}
	c.httpClient.Jar = jar
	c.authenticated = false
	c.lookups.Clear()

	c.logger.Info("retrieving login cookies")

	// The portal redirects to the SSO login form.
	loginPage, err := c.do(ctx, http.MethodGet, c.baseURL, nil, "")
	if err != nil {
		return fmt.Errorf("%w: fetching login page: %v", ErrNetwork, err)
	}
	defer loginPage.Body.Close()

	inputs, err := parseFormInputs(loginPage.Body)
	if err != nil {
		return err
	}
	token, err := verificationToken(inputs)
	if err != nil {
		return err
	}

	loginURL := loginPage.Request.URL
	returnURL := loginURL.Query().Get("ReturnUrl")

	c.logger.Debug("logging in with username and password")
	form := url.Values{}
	form.Set("ReturnUrl", returnURL)
	form.Set("Username", c.creds.Username())
	form.Set("Password", c.creds.Password())
	form.Set(verificationTokenField, token)
	form.Set("RememberLogin", "true")
	authPage, err := c.do(ctx, http.MethodPost, loginURL.String(), strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return fmt.Errorf("%w: posting credentials: %v", ErrNetwork, err)
	}
	defer authPage.Body.Close()
	if authPage.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: login form returned status %d", ErrAuthentication, authPage.StatusCode)
	}

	authInputs, err := parseFormInputs(authPage.Body)
	if err != nil {
		return err
	}
	// The OIDC inputs are absent when the credentials were rejected.
	params, err := oidcParams(authInputs)
	if err != nil {
		return err
	}

	c.logger.Debug("signing in using OIDC")
	signin, err := c.do(ctx, http.MethodPost, c.baseURL+"/signin-oidc", strings.NewReader(params.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return fmt.Errorf("%w: completing OIDC signin: %v", ErrNetwork, err)
	}
	defer signin.Body.Close()
	if signin.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: OIDC signin returned status %d", ErrAuthentication, signin.StatusCode)
	}

	c.logger.Debug("login success")
	c.authenticated = true
	return nil
}

// LatestReading fetches the most recent meter reading for the account.
// An expired or rejected session triggers at most one transparent re-login
// per call, so persistently bad credentials fail fast instead of looping.
func (c *SessionClient) LatestReading(ctx context.Context) (common.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile, err := c.profile(ctx)
	if err != nil {
		return common.Reading{}, err
	}

	year := c.now().Year()
	payload, err := c.meterReadings(ctx, profile, year)
	if err != nil {
		return common.Reading{}, err
	}

	electricity, ok := payload.latestReading(productTypeElectricity)
	if !ok {
		// Early in January the upstream may not have published anything
		// for the new year yet; look back once.
		payload, err = c.meterReadings(ctx, profile, year-1)
		if err != nil {
			return common.Reading{}, err
		}
		electricity, ok = payload.latestReading(productTypeElectricity)
		if !ok {
			return common.Reading{}, fmt.Errorf("%w: no electricity readings in %d or %d", ErrNoData, year, year-1)
		}
	}

	reading, err := buildReading(electricity)
	if err != nil {
		return common.Reading{}, err
	}

	// Gas history rides along in the same payload; its newest value is
	// exposed as an attribute, never as the published state.
	if gas, ok := payload.latestReading(productTypeGas); ok && gas.Gas != nil {
		reading.Measurements[common.MeasurementGas] = *gas.Gas
	}

	c.logger.Debug("fetched latest reading",
		zap.Float64("value", reading.Value),
		zap.Time("date", reading.Date),
	)

	return reading, nil
}

// FetchRates fetches the account's current tariff snapshot.
func (c *SessionClient) FetchRates(ctx context.Context) (*Rates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile, err := c.profile(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"AgreementIdElectricity": {strconv.Itoa(profile.AgreementID)},
		"HouseNumber":            {strconv.Itoa(profile.HouseNumber)},
		"ZipCode":                {profile.PostalCode},
	}
	endpoint := fmt.Sprintf("%s/api/v2/customers/%d/rates?%s", c.baseURL, profile.CustomerNumber, query.Encode())

	var payload ratesResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	rates := &Rates{}
	if payload.Electricity != nil {
		rates.HasElectricity = true
		rates.ElectricityPriceSingle = payload.Electricity.PriceSingle
		rates.ElectricityPriceLow = payload.Electricity.PriceLow
		rates.ElectricityPriceHigh = payload.Electricity.PriceHigh
		rates.FeedInRefund = payload.Electricity.FeedInRefund
	}
	if payload.Gas != nil {
		rates.HasGas = true
		rates.GasPrice = payload.Gas.Price
	}
	return rates, nil
}

// profile resolves the account's customer number and agreement id, cached
// for the session lifetime. Must be called with mu held.
func (c *SessionClient) profile(ctx context.Context) (*profileResponse, error) {
	if cached, ok := c.lookups.Get(profileCacheKey); ok {
		return cached.(*profileResponse), nil
	}

	var profiles []profileResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/v2/Profiles/", &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: account has no profiles", ErrNoData)
	}

	profile := profiles[0]
	c.lookups.Set(profileCacheKey, &profile)
	return &profile, nil
}

// meterReadings fetches one year of reading history. Must be called with
// mu held.
func (c *SessionClient) meterReadings(ctx context.Context, profile *profileResponse, year int) (*meterReadingsResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v2/customers/%d/agreements/%d/meter-readings/%d/",
		c.baseURL, profile.CustomerNumber, profile.AgreementID, year)

	var payload meterReadingsResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// getJSON performs an authenticated GET and decodes the JSON body.
// On session expiry it re-authenticates once and replays the request.
// Must be called with mu held.
func (c *SessionClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if !c.authenticated {
		if err := c.login(ctx); err != nil {
			return err
		}
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if c.sessionExpired(resp) {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.logger.Debug("session expired, triggering refresh")
		if err := c.login(ctx); err != nil {
			return err
		}
		resp, err = c.do(ctx, http.MethodGet, endpoint, nil, "")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		if c.sessionExpired(resp) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return fmt.Errorf("%w: session rejected after re-login", ErrAuthentication)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrNetwork, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrParse, endpoint, err)
	}
	return nil
}

// sessionExpired reports whether a response indicates the session cookie
// is no longer accepted. The portal either answers 401/403 outright or
// redirects the request back to the SSO authorize endpoint, which serves
// HTML instead of the expected JSON.
func (c *SessionClient) sessionExpired(resp *http.Response) bool {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return true
	}
	if resp.Request != nil && strings.Contains(resp.Request.URL.Host, "sso.") {
		return true
	}
	return false
}

// do issues one HTTP request with the session cookie jar.
func (c *SessionClient) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, text/html")

	c.logger.Debug("request", zap.String("method", method), zap.String("url", endpoint))
	return c.httpClient.Do(req)
}

// buildReading converts the newest electricity wire reading into the
// published Reading shape. The value is the cumulative consumption total
// across the normal and off-peak registers.
func buildReading(raw wireReading) (common.Reading, error) {
	if raw.NormalConsumption == nil && raw.OffPeakConsumption == nil {
		return common.Reading{}, fmt.Errorf("%w: reading has no consumption registers", ErrParse)
	}

	measurements := make(map[common.MeasurementKind]float64, 5)
	var total float64
	if raw.NormalConsumption != nil {
		measurements[common.MeasurementConsumptionHigh] = *raw.NormalConsumption
		total += *raw.NormalConsumption
	}
	if raw.OffPeakConsumption != nil {
		measurements[common.MeasurementConsumptionLow] = *raw.OffPeakConsumption
		total += *raw.OffPeakConsumption
	}
	if raw.NormalFeedIn != nil {
		measurements[common.MeasurementFeedInHigh] = *raw.NormalFeedIn
	}
	if raw.OffPeakFeedIn != nil {
		measurements[common.MeasurementFeedInLow] = *raw.OffPeakFeedIn
	}

	return common.Reading{
		Value:        total,
		Date:         raw.ReadingDate.Time(),
		Measurements: measurements,
	}, nil
}
