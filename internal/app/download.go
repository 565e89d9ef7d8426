/**
 * @description
 * Download URL issuance. A completed settlement may entitle the buyer to a
 * time-limited download; URL generation is modeled as an ordered list of
 * strategies tried in sequence, with the first success winning. A minting
 * failure never fails the purchase: the chain degrades to the track's public
 * URL, then to no URL at all.
 */

package app

import (
	"context"
	"log"
	"time"
)

// URLSigner mints a time-limited URL for a storage object. Implemented by
// pkg/s3storage; nil signers are tolerated (the chain skips to the fallback).
type URLSigner interface {
	ObjectExists(ctx context.Context, storagePath string) (bool, error)
	MintURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error)
}

// downloadStrategy attempts to produce one download URL. ok=false means "try
// the next strategy", never an error the caller must handle.
type downloadStrategy func(ctx context.Context) (url string, ok bool)

// mintDownloadURL walks the strategy chain for the given track: signed storage
// URL first, then the public audio URL. Returns nil when no strategy produced
// a URL or the track forbids download.
func (s *Service) mintDownloadURL(ctx context.Context, allowDownload bool, audioPath, audioURL string) *string {
	if !allowDownload {
		return nil
	}

	strategies := []downloadStrategy{
		func(ctx context.Context) (string, bool) {
			if s.signer == nil || audioPath == "" {
				return "", false
			}
			exists, err := s.signer.ObjectExists(ctx, audioPath)
			if err != nil {
				log.Printf("level=warn component=download msg=\"storage existence check failed, falling through\" path=%s err=%v", audioPath, err)
				return "", false
			}
			if !exists {
				return "", false
			}
			url, err := s.signer.MintURL(ctx, audioPath, s.downloadTTL)
			if err != nil {
				log.Printf("level=warn component=download msg=\"signed url minting failed, falling through\" path=%s err=%v", audioPath, err)
				return "", false
			}
			return url, true
		},
		func(ctx context.Context) (string, bool) {
			return audioURL, audioURL != ""
		},
	}

	for _, strategy := range strategies {
		if url, ok := strategy(ctx); ok {
			return &url
		}
	}
	return nil
}
