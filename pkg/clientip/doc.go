// Package clientip extracts the real client IP address from HTTP requests.
//
// Headers are checked in this order, and the first valid address wins:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For, leftmost entry
//  4. X-Real-IP
//  5. RemoteAddr
//
// Every candidate is parsed with net/netip and normalized, so
// "::ffff:192.0.2.1" and "192.0.2.1" produce the same key. The
// unspecified addresses 0.0.0.0 and :: are rejected. When nothing valid
// is found GetIP returns RemoteAddr as is, or Unknown when it is empty.
//
//	ip := clientip.GetIP(r)
//	res := limiter.CheckRequestLimit(ip)
package clientip
