// Package s3 stores paste images in Amazon S3 or an S3-compatible service
// such as Cloudflare R2 or MinIO.
//
//	store, err := s3.New(ctx, s3.Config{
//		Bucket:          "dustebin",
//		Region:          "auto",
//		Endpoint:        "https://<account>.r2.cloudflarestorage.com",
//		AccessKeyID:     key,
//		SecretAccessKey: secret,
//		PublicURL:       "https://images.example.com",
//	})
//	obj, err := store.Put(ctx, "images/"+uuid.NewString()+".png", data, "image/png")
//
// URL prefers PublicURL, then the custom endpoint (virtual-hosted or path
// style), then the regional AWS host. SDK errors are mapped to the package
// sentinels, so callers can test for ErrObjectNotFound with errors.Is.
package s3
