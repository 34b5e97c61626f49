package flags

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/nyaysahay/nyaysahay/pkg/storage"
)

// StorageFlags configures the object store for user file uploads (incident
// evidence, profile pictures, identity documents).
type StorageFlags struct {
	Region        string
	Endpoint      string
	Bucket        string
	PublicBaseURL string
}

func NewStorageFlags() *StorageFlags {
	return &StorageFlags{
		Region: "ap-south-1",
		Bucket: "nyaysahay-uploads",
	}
}

func (f *StorageFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Region, "storage-region", f.Region, "Object storage region")
	fs.StringVar(&f.Endpoint, "storage-endpoint", f.Endpoint, "Object storage endpoint, for S3-compatible stores (optional)")
	fs.StringVar(&f.Bucket, "storage-bucket", f.Bucket, "Bucket for file uploads")
	fs.StringVar(&f.PublicBaseURL, "storage-public-url", f.PublicBaseURL, "Public base URL uploaded files are served from")
}

// StorageConfig merges flags with the credential environment variables.
func (f *StorageFlags) StorageConfig() storage.Config {
	return storage.Config{
		Region:        f.Region,
		Endpoint:      f.Endpoint,
		AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
		Bucket:        f.Bucket,
		PublicBaseURL: f.PublicBaseURL,
	}
}
