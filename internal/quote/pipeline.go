// Package quote composes the analyzer and the price calculator into a
// single quote response per upload.
package quote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"printforge/internal/models"
	"printforge/internal/pricing"
	"printforge/internal/redis"

	"golang.org/x/sync/singleflight"
)

// ErrMissingFile is the pipeline's only failure mode: a quote was
// requested without a readable file.
var ErrMissingFile = errors.New("no file uploaded")

// Analyzer is the analysis entry point the pipeline calls. In production
// this is the worker dispatcher; tests inject a fake.
type Analyzer interface {
	Analyze(ctx context.Context, file *models.UploadedFile, specialRequests string) (models.AnalysisResult, error)
}

const defaultCacheTTL = 15 * time.Minute

// Pipeline produces quotes. The cache is optional; identical concurrent
// requests share one in-flight analysis either way.
type Pipeline struct {
	analyzer Analyzer
	cache    *redis.Client
	cacheTTL time.Duration
	group    singleflight.Group
}

// New builds a Pipeline. cache may be nil to disable quote caching.
func New(analyzer Analyzer, cache *redis.Client, cacheTTL time.Duration) *Pipeline {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Pipeline{
		analyzer: analyzer,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Quote runs analyze then price and returns the combined response. Any
// analysis failure has already been absorbed by the analyzer's fallback,
// so a valid file always yields a complete quote.
func (p *Pipeline) Quote(ctx context.Context, file *models.UploadedFile, specialRequests string) (*models.Quote, error) {
	if file == nil || file.Name == "" {
		return nil, ErrMissingFile
	}

	key := cacheKey(file, specialRequests)
	if cached := p.lookupCache(ctx, key); cached != nil {
		return cached, nil
	}

	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		// The flight is shared by every caller with this key, so it must
		// not die with whichever caller happened to start it. The
		// analyzer bounds the detached context with its own timeout.
		sharedCtx := context.WithoutCancel(ctx)
		analysis, err := p.analyzer.Analyze(sharedCtx, file, specialRequests)
		if err != nil {
			return nil, err
		}
		q := &models.Quote{
			Analysis: analysis,
			Pricing:  pricing.Price(analysis),
			FileName: file.Name,
			FileSize: file.SizeBytes,
		}
		p.storeCache(sharedCtx, key, q)
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Quote), nil
}

func cacheKey(file *models.UploadedFile, specialRequests string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s|%s", file.Name, file.SizeBytes, file.Extension, specialRequests)))
	return "quote:" + hex.EncodeToString(sum[:])
}

func (p *Pipeline) lookupCache(ctx context.Context, key string) *models.Quote {
	if p.cache == nil {
		return nil
	}
	raw, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("quote cache lookup failed: %v", err)
		}
		return nil
	}
	var q models.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		log.Printf("quote cache entry corrupt, dropping: %v", err)
		_ = p.cache.Del(ctx, key)
		return nil
	}
	return &q
}

func (p *Pipeline) storeCache(ctx context.Context, key string, q *models.Quote) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, string(raw), p.cacheTTL); err != nil {
		log.Printf("quote cache store failed: %v", err)
	}
}
