package config

// StorageConfig configures where uploaded attachment files live.
type StorageConfig struct {
	// Mode is "local" or "s3".
	Mode     string
	LocalDir string
	S3Bucket string
	S3Prefix string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:     getEnv("STORAGE_MODE", "local"),
		LocalDir: getEnv("UPLOAD_DIR", "./uploads"),
		S3Bucket: getEnv("AWS_BUCKET", "caremail-uploads"),
		S3Prefix: getEnv("AWS_BUCKET_PREFIX", ""),
	}
}
