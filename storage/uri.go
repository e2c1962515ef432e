package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseURI builds a ProviderConfig from a storage URI string.
// URI format: [scheme]://[bucket]/[prefix]?[parameters]
// Examples:
//   - s3://my-bucket/snapshots?region-id=us-east-1&endpoint=https://s3.example.com
//   - oss://my-bucket/snapshots?region-id=oss-ap-southeast-1&access-key=AKSKEXAMPLE
//   - azure://my-container/snapshots?account-name=myaccount
//   - localfs:///var/lib/adapter/snapshots?create-dirs=true&permissions=0755
//
// Supported schemes: s3, oss, azure, localfs, file
// Common parameters: region-id/region, endpoint, prefix
// AWS/S3 parameters: access-key, secret-access-key, session-token, assume-role-arn/role-arn, s3-force-path-style/force-path-style
// OSS parameters: access-key, secret-access-key, session-token, assume-role-arn/role-arn
// Azure parameters: account-name, account-key, sas-token
// LocalFS parameters: create-dirs, permissions
func ParseURI(uriStr string) (*ProviderConfig, error) {
	parsedURL, err := url.Parse(uriStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse storage URI: %w", err)
	}

	config := &ProviderConfig{}

	switch strings.ToLower(parsedURL.Scheme) {
	case "s3":
		config.Type = ProviderTypeS3
	case "oss":
		config.Type = ProviderTypeOSS
	case "azure":
		config.Type = ProviderTypeAzure
	case "localfs", "file":
		config.Type = ProviderTypeLocalFS
	default:
		return nil, fmt.Errorf("unsupported storage URI scheme: %s", parsedURL.Scheme)
	}

	if config.Type == ProviderTypeLocalFS {
		var basePath string
		if parsedURL.Host != "" {
			// URI like "localfs://dir/path" keeps host as the first path element
			hostPath := "/" + parsedURL.Host
			if parsedURL.Path != "" && parsedURL.Path != "/" {
				basePath = hostPath + "/" + strings.TrimPrefix(parsedURL.Path, "/")
			} else {
				basePath = hostPath
			}
		} else {
			// URI like "file:///path" or "localfs:///path"
			basePath = parsedURL.Path
		}
		config.LocalFS = &LocalFSConfig{
			BasePath:   basePath,
			CreateDirs: true, // default
		}
	} else {
		// For cloud providers, host is the bucket or container name
		if parsedURL.Host != "" {
			config.Bucket = parsedURL.Host
		}
		if parsedURL.Path != "" {
			config.Prefix = strings.TrimPrefix(parsedURL.Path, "/")
		}
	}

	queryParams := parsedURL.Query()

	regionID := queryParams.Get("region-id")
	if regionID == "" {
		regionID = queryParams.Get("region")
	}
	if regionID != "" {
		config.Region = regionID
	}
	if prefix := queryParams.Get("prefix"); prefix != "" {
		config.Prefix = prefix
	}
	if endpoint := queryParams.Get("endpoint"); endpoint != "" {
		config.Endpoint = endpoint
	}

	switch config.Type {
	case ProviderTypeS3:
		awsConfig := &AWSConfig{}
		hasAWSConfig := false

		if accessKey := queryParams.Get("access-key"); accessKey != "" {
			awsConfig.AccessKey = accessKey
			hasAWSConfig = true
		}
		if secretKey := queryParams.Get("secret-access-key"); secretKey != "" {
			awsConfig.SecretAccessKey = secretKey
			hasAWSConfig = true
		}
		if sessionToken := queryParams.Get("session-token"); sessionToken != "" {
			awsConfig.SessionToken = sessionToken
			hasAWSConfig = true
		}
		// Support both "assume-role-arn" and "role-arn" parameter names
		roleARN := queryParams.Get("assume-role-arn")
		if roleARN == "" {
			roleARN = queryParams.Get("role-arn")
		}
		if roleARN != "" {
			awsConfig.AssumeRoleARN = roleARN
			hasAWSConfig = true
		}
		// Support both "s3-force-path-style" and "force-path-style" parameter names
		forcePathStyle := queryParams.Get("s3-force-path-style")
		if forcePathStyle == "" {
			forcePathStyle = queryParams.Get("force-path-style")
		}
		if forcePathStyle == "true" {
			awsConfig.S3ForcePathStyle = true
			hasAWSConfig = true
		}

		if hasAWSConfig {
			config.AWS = awsConfig
		}

	case ProviderTypeOSS:
		ossConfig := &OSSConfig{}
		hasOSSConfig := false

		if accessKey := queryParams.Get("access-key"); accessKey != "" {
			ossConfig.AccessKey = accessKey
			hasOSSConfig = true
		}
		if secretKey := queryParams.Get("secret-access-key"); secretKey != "" {
			ossConfig.SecretAccessKey = secretKey
			hasOSSConfig = true
		}
		if sessionToken := queryParams.Get("session-token"); sessionToken != "" {
			ossConfig.SessionToken = sessionToken
			hasOSSConfig = true
		}
		roleARN := queryParams.Get("assume-role-arn")
		if roleARN == "" {
			roleARN = queryParams.Get("role-arn")
		}
		if roleARN != "" {
			ossConfig.AssumeRoleARN = roleARN
			hasOSSConfig = true
		}

		if hasOSSConfig {
			config.OSS = ossConfig
		}

	case ProviderTypeAzure:
		azureConfig := &AzureConfig{}
		hasAzureConfig := false

		if accountName := queryParams.Get("account-name"); accountName != "" {
			azureConfig.AccountName = accountName
			hasAzureConfig = true
		}
		if accountKey := queryParams.Get("account-key"); accountKey != "" {
			azureConfig.AccountKey = accountKey
			hasAzureConfig = true
		}
		if sasToken := queryParams.Get("sas-token"); sasToken != "" {
			azureConfig.SASToken = sasToken
			hasAzureConfig = true
		}

		if hasAzureConfig {
			config.Azure = azureConfig
		}

	case ProviderTypeLocalFS:
		if createDirs := queryParams.Get("create-dirs"); createDirs == "false" {
			config.LocalFS.CreateDirs = false
		}
		if permissions := queryParams.Get("permissions"); permissions != "" {
			config.LocalFS.Permissions = permissions
		}
	}

	return config, nil
}

// NewProviderFromURI parses a storage URI and constructs the provider it names.
func NewProviderFromURI(uriStr string) (ObjectStorageProvider, error) {
	config, err := ParseURI(uriStr)
	if err != nil {
		return nil, err
	}
	return NewObjectStorageProvider(config)
}
