// Package paste implements paste storage and retrieval: creation with
// optional password and expiry, burn-after-reading, image pastes backed by
// object storage, debounced view counting and asynchronous AI metadata.
//
// Text above CompressionThreshold bytes is stored zstd compressed. Passwords
// are bcrypt hashed. Expired pastes are deleted lazily on access and in bulk
// by Cleaner.
package paste
