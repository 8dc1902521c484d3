package filestore

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderMinIO Provider = "minio"
	ProviderAzure Provider = "azure"
)

// Config holds all settings needed to connect to a file storage backend.
type Config struct {
	// Provider is the storage backend (e.g. ProviderS3).
	Provider Provider

	// Endpoint overrides the provider's public endpoint.
	// Example: "localhost:9000" for local MinIO. Empty means the provider default.
	Endpoint string

	// AccessKey is the access key ID (S3 / MinIO) or storage account name (Azure).
	AccessKey string

	// SecretKey is the secret access key (S3 / MinIO) or account key (Azure).
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	Region string

	// DefaultBucket is the bucket (Azure: container) the caller works in.
	DefaultBucket string
}
