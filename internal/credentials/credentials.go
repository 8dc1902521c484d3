// Package credentials persists the single bucket credential record a device
// uses. Stores are plain key-value persistence: they never validate fields.
package credentials

import (
	"context"
	"strings"
)

// Credentials is the on-device bucket credential record.
// The JSON shape is fixed; existing credential files depend on it.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region"`
	BucketName      string `json:"bucketName"`
}

// Complete reports whether every field is non-blank.
func (c *Credentials) Complete() bool {
	return c != nil && len(c.Missing()) == 0
}

// Missing returns the JSON names of blank fields, in form order.
func (c *Credentials) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "accessKeyId")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "secretAccessKey")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "region")
	}
	if strings.TrimSpace(c.BucketName) == "" {
		missing = append(missing, "bucketName")
	}
	return missing
}

// Store persists one Credentials record.
type Store interface {
	// Save overwrites the stored record. A failed Save leaves the previous
	// record intact.
	Save(ctx context.Context, creds Credentials) error

	// Load returns the stored record, or (nil, nil) when none exists.
	// Errors mean the storage medium itself failed.
	Load(ctx context.Context) (*Credentials, error)
}
