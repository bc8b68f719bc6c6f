// README: Geocoding service: cached, fail-soft place search with per-session stale-query discard.
package geocoding

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// NoticeUnavailable is shown when the provider could not be reached.
const NoticeUnavailable = "Location search is temporarily unavailable. You can type the address manually."

type Options struct {
	Country  string
	Limit    int
	CacheTTL time.Duration
}

type Service struct {
	provider Provider
	cache    Cache
	opts     Options
	log      logrus.FieldLogger

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewService wires a provider. cache may be nil.
func NewService(provider Provider, cache Cache, opts Options, log logrus.FieldLogger) *Service {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	return &Service{provider: provider, cache: cache, opts: opts, log: log, inflight: make(map[string]inflight)}
}

// Search returns up to Limit places for query. Queries shorter than
// MinQueryLength return no places without calling the provider.
func (s *Service) Search(ctx context.Context, query, country string) Result {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return Result{Places: []Place{}}
	}
	if country == "" {
		country = s.opts.Country
	}
	key := cacheKey(query, country)

	if s.cache != nil {
		var cached []Place
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.WithError(err).Warn("geocode cache read failed")
		}
		if hit {
			return Result{Places: cached}
		}
	}

	places, err := s.provider.Search(ctx, query, country, s.opts.Limit)
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithError(err).WithField("query", query).Warn("geocoding provider failed")
		}
		return Result{Places: []Place{}, Notice: NoticeUnavailable}
	}
	if places == nil {
		places = []Place{}
	}
	if s.cache != nil && s.opts.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, places, s.opts.CacheTTL); err != nil {
			s.log.WithError(err).Warn("geocode cache write failed")
		}
	}
	return Result{Places: places}
}

// Suggest runs Search for an autocomplete session (for example "uid:pickup").
// A newer call with the same sessionKey cancels this lookup and marks its
// result Stale so the caller can drop it.
func (s *Service) Suggest(ctx context.Context, sessionKey, query, country string) Suggestion {
	lookupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if prev, ok := s.inflight[sessionKey]; ok {
		prev.cancel()
	}
	s.inflight[sessionKey] = inflight{seq: seq, cancel: cancel}
	s.mu.Unlock()

	res := s.Search(lookupCtx, query, country)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.inflight[sessionKey]
	if !ok || cur.seq != seq {
		return Suggestion{Result: Result{Places: []Place{}}, Stale: true}
	}
	delete(s.inflight, sessionKey)
	return Suggestion{Result: res}
}

func cacheKey(query, country string) string {
	return strings.ToLower(country) + ":" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
