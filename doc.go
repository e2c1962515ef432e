// Package adapter is a polling data-source adapter for the Greenchoice
// customer portal written in Go.
//
// greenchoice_adapter authenticates against the portal's OIDC login flow,
// fetches the most recent meter reading on a fixed interval, caches it with
// a monotonic-by-date update policy and publishes a stable entity shape to
// a host monitoring platform. The cached state can optionally be persisted
// to object storage (local filesystem, AWS S3, Azure Blob or Alibaba OSS)
// so a restart republishes the last-known reading immediately.
//
// # Getting started
//
// The best way to get started working with the adapter is to use `go get` to
// add it to your Go dependencies explicitly.
//
//	go get github.com/meterflow/greenchoice_adapter
//
// # Polling an account
//
// This example shows how to poll one account and print the published entity
// after every accepted update.
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "time"
//
//	    adapter "github.com/meterflow/greenchoice_adapter"
//	    "github.com/meterflow/greenchoice_adapter/cache"
//	    "github.com/meterflow/greenchoice_adapter/client"
//	    "github.com/meterflow/greenchoice_adapter/common"
//	    "github.com/meterflow/greenchoice_adapter/config"
//	    "github.com/meterflow/greenchoice_adapter/poller"
//	    "github.com/meterflow/greenchoice_adapter/sensor"
//	)
//
//	func main() {
//	    creds, err := adapter.NewCredentials("user@example.com", "secret")
//	    if err != nil {
//	        log.Fatalf("Invalid credentials: %v", err)
//	    }
//
//	    cfg := config.DefaultConfig().
//	        WithDevelopmentLogger().
//	        WithPollInterval(time.Hour)
//
//	    apiClient, err := client.NewSessionClient(creds, cfg)
//	    if err != nil {
//	        log.Fatalf("Failed to create client: %v", err)
//	    }
//
//	    readingCache := cache.NewReadingCache(cfg.GetLogger())
//	    energySensor := sensor.New("energy_consumption", readingCache, cfg.GetLogger())
//
//	    p := poller.New(apiClient, readingCache, cfg,
//	        poller.WithUpdateFunc(func(state common.CachedState) {
//	            fmt.Printf("entity: %+v\n", energySensor.Entity())
//	        }),
//	    )
//
//	    p.Start(context.Background())
//	}
//
// # Persisting state across restarts
//
// This example shows how to persist the cached state to S3 so a restart
// does not publish "unavailable" until the first poll completes.
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/meterflow/greenchoice_adapter/config"
//	    "github.com/meterflow/greenchoice_adapter/poller"
//	    "github.com/meterflow/greenchoice_adapter/snapshot"
//	    "github.com/meterflow/greenchoice_adapter/storage"
//	)
//
//	func main() {
//	    s3Config := &storage.ProviderConfig{
//	        Type:   storage.ProviderTypeS3,
//	        Bucket: "your-bucket-name",
//	        Region: "eu-west-1",
//	        Prefix: "adapter-state",
//	    }
//
//	    provider, err := storage.NewObjectStorageProvider(s3Config)
//	    if err != nil {
//	        log.Fatalf("Failed to create storage provider: %v", err)
//	    }
//
//	    store, err := snapshot.NewObjectStore(provider, "energy_consumption", config.DefaultConfig().GetLogger())
//	    if err != nil {
//	        log.Fatalf("Failed to create snapshot store: %v", err)
//	    }
//
//	    // pass to the poller
//	    _ = poller.WithSnapshotStore(store)
//	}
//
// Storage backends can also be named by URI, for example
// "localfs:///var/lib/adapter?create-dirs=true" or
// "s3://bucket/prefix?region-id=eu-west-1", via snapshot.NewObjectStoreFromURI.
package adapter
