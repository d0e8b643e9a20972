// Package cache provides a small generic cache with a soft size limit.
//
// When an insertion pushes the cache past its limit, the least recently
// used quarter of the entries is evicted in one pass.
//
//	faces := cache.New[faceKey, text.Face](256)
//	f, err := faces.GetOrCreate(k, func() (text.Face, error) { ... })
package cache
