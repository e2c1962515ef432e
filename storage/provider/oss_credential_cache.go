package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alibabacloud-go/darabonba-openapi/v2/client"
	stsclient "github.com/alibabacloud-go/sts-20150401/v2/client"
	"github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
	openapicred "github.com/aliyun/credentials-go/credentials"
)

// AssumeRoleCredentials represents the credentials obtained from assume role
type AssumeRoleCredentials struct {
	AccessKeyID     string
	AccessKeySecret string
	SecurityToken   string
	Expiration      time.Time
}

// CredentialCache manages the caching of assume role credentials
type CredentialCache struct {
	mu               sync.Mutex
	assumeRoleARN    string
	region           string
	cached           *AssumeRoleCredentials
	stsCli           *stsclient.Client
	refreshThreshold time.Duration // how long before expiration to start refreshing
}

// NewCredentialCache creates a new credential cache for assume role
func NewCredentialCache(baseCred openapicred.Credential, assumeRoleARN string, region string) (*CredentialCache, error) {
	if assumeRoleARN == "" {
		return nil, fmt.Errorf("assume role ARN is required")
	}

	if region == "" {
		return nil, fmt.Errorf("region is required")
	}

	stsCli, err := stsclient.NewClient(&client.Config{
		Credential: baseCred,
		RegionId:   tea.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create STS client: %w", err)
	}

	return &CredentialCache{
		assumeRoleARN:    assumeRoleARN,
		region:           region,
		stsCli:           stsCli,
		refreshThreshold: 15 * time.Minute,
	}, nil
}

// GetCredentials returns cached credentials, refreshing them when missing or
// close to expiration. Concurrent callers are serialized so AssumeRole is
// called at most once per refresh.
func (c *CredentialCache) GetCredentials(ctx context.Context) (credentials.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && !c.needsRefresh(c.cached.Expiration) {
		return c.cached.asOSSCredentials(), nil
	}

	if err := c.refreshLocked(ctx); err != nil {
		// Keep serving the previous credentials while they remain valid
		if c.cached != nil && time.Now().Before(c.cached.Expiration) {
			return c.cached.asOSSCredentials(), nil
		}
		return credentials.Credentials{}, err
	}

	return c.cached.asOSSCredentials(), nil
}

func (a *AssumeRoleCredentials) asOSSCredentials() credentials.Credentials {
	return credentials.Credentials{
		AccessKeyID:     a.AccessKeyID,
		AccessKeySecret: a.AccessKeySecret,
		SecurityToken:   a.SecurityToken,
	}
}

// needsRefresh checks if credentials need to be refreshed
func (c *CredentialCache) needsRefresh(expiration time.Time) bool {
	return time.Now().Add(c.refreshThreshold).After(expiration)
}

// refreshLocked fetches new credentials using assume role. Callers must hold c.mu.
func (c *CredentialCache) refreshLocked(ctx context.Context) error {
	resp, err := c.callAssumeRole(ctx)
	if err != nil {
		return fmt.Errorf("failed to assume role: %w", err)
	}

	expiration, err := time.Parse(time.RFC3339, tea.StringValue(resp.Body.Credentials.Expiration))
	if err != nil {
		return fmt.Errorf("failed to parse expiration time: %w", err)
	}

	c.cached = &AssumeRoleCredentials{
		AccessKeyID:     tea.StringValue(resp.Body.Credentials.AccessKeyId),
		AccessKeySecret: tea.StringValue(resp.Body.Credentials.AccessKeySecret),
		SecurityToken:   tea.StringValue(resp.Body.Credentials.SecurityToken),
		Expiration:      expiration,
	}
	return nil
}

// callAssumeRole calls STS AssumeRole API using official STS client
func (c *CredentialCache) callAssumeRole(ctx context.Context) (*stsclient.AssumeRoleResponse, error) {
	assumeReq := &stsclient.AssumeRoleRequest{
		RoleArn:         tea.String(c.assumeRoleARN),
		RoleSessionName: tea.String(fmt.Sprintf("snapshot-store-session-%d", time.Now().Unix())),
		DurationSeconds: tea.Int64(3600), // 1 hour validity period
	}

	resp, err := c.stsCli.AssumeRoleWithOptions(assumeReq, &service.RuntimeOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to call AssumeRole API: %w", err)
	}

	if resp.Body == nil || resp.Body.Credentials == nil {
		return nil, fmt.Errorf("invalid AssumeRole response: missing credentials")
	}

	return resp, nil
}

// StartBackgroundRefresh starts a background goroutine that keeps the cached
// credentials fresh so foreground calls rarely pay the AssumeRole latency.
func (c *CredentialCache) StartBackgroundRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.cached != nil && c.needsRefresh(c.cached.Expiration) {
					// background refresh, errors surface on the next foreground call
					_ = c.refreshLocked(context.Background())
				}
				c.mu.Unlock()
			}
		}
	}()
}
