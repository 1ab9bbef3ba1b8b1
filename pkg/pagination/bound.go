// Package pagination discovers how many listing pages an archive has.
package pagination

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	// DefaultUpperBound is the highest page number the search considers.
	DefaultUpperBound = 1000
	// DefaultFallbackLastPage is used when page 1 cannot be probed at all.
	DefaultFallbackLastPage = 484
	// DefaultProbeAttempts includes the first attempt.
	DefaultProbeAttempts = 2
)

// Probe reports whether the given listing page has at least one card.
type Probe func(ctx context.Context, page int) (bool, error)

// Options tunes FindLastPage. Zero values select the defaults.
type Options struct {
	UpperBound       int
	FallbackLastPage int
	ProbeAttempts    int
	// ConfirmEmpty re-probes page+1 before accepting an empty page as the end
	// of the archive, so one transiently empty page does not truncate the range.
	ConfirmEmpty bool
	Logger       zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.UpperBound <= 0 {
		o.UpperBound = DefaultUpperBound
	}
	if o.FallbackLastPage <= 0 {
		o.FallbackLastPage = DefaultFallbackLastPage
	}
	if o.ProbeAttempts <= 0 {
		o.ProbeAttempts = DefaultProbeAttempts
	}
	return o
}

// FindLastPage binary searches [1, UpperBound] for the last page on which
// probe reports cards. Pages are assumed contiguous from 1: if page P has
// cards, every page below P does too.
//
// A probe that keeps failing counts as "no cards", which can only shrink the
// result. If page 1 itself cannot be probed the fallback page is returned.
// The result is at least 1.
func FindLastPage(ctx context.Context, probe Probe, opts Options) int {
	opts = opts.withDefaults()
	logger := opts.Logger.With().Str("component", "pagination").Logger()

	f := &finder{probe: probe, opts: opts, logger: logger}

	if _, err := f.check(ctx, 1); err != nil {
		logger.Warn().
			Err(err).
			Int("fallback", opts.FallbackLastPage).
			Msg("cannot probe first page, using fallback last page")
		return opts.FallbackLastPage
	}

	low, high, best := 1, opts.UpperBound, 1
	for low <= high {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Int("best", best).Msg("search interrupted")
			return best
		}

		mid := low + (high-low)/2
		if f.present(ctx, mid) {
			best = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	logger.Info().Int("last_page", best).Int("probes", f.probes).Msg("found last listing page")
	return best
}

type finder struct {
	probe  Probe
	opts   Options
	logger zerolog.Logger
	probes int
}

// present folds errors into "absent" and applies the empty-page confirmation.
func (f *finder) present(ctx context.Context, page int) bool {
	ok, err := f.check(ctx, page)
	if err != nil {
		f.logger.Warn().Err(err).Int("page", page).Msg("probe failed, treating page as absent")
		return false
	}
	if ok || !f.opts.ConfirmEmpty || page >= f.opts.UpperBound {
		return ok
	}

	next, err := f.check(ctx, page+1)
	if err == nil && next {
		f.logger.Warn().Int("page", page).Msg("empty page followed by a non-empty one, treating as present")
		return true
	}
	return false
}

// check calls the probe up to ProbeAttempts times and returns the first
// answer, or the last error.
func (f *finder) check(ctx context.Context, page int) (bool, error) {
	var err error
	for attempt := 1; attempt <= f.opts.ProbeAttempts; attempt++ {
		f.probes++
		var ok bool
		ok, err = f.probe(ctx, page)
		if err == nil {
			f.logger.Debug().Int("page", page).Bool("has_cards", ok).Msg("probed page")
			return ok, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		f.logger.Debug().Err(err).Int("page", page).Int("attempt", attempt).Msg("probe error")
	}
	return false, err
}
