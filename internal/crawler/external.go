package crawler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/BenjaminSRussell/linkaudit/internal/classifier"
	"github.com/BenjaminSRussell/linkaudit/internal/parser"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

func (c *Crawler) submitExternal(ctx context.Context, u *url.URL, referrer string) {
	c.submit(ctx, u.String(), func(ctx context.Context) error {
		outcome := c.checkExternal(ctx, u)
		outcome.Referrer = referrer
		c.report(outcome)
		return nil
	})
}

// checkExternal returns the outcome for u without a referrer. With
// DedupExternal, concurrent and later checks of the same URL share one result.
func (c *Crawler) checkExternal(ctx context.Context, u *url.URL) types.Outcome {
	if !c.config.DedupExternal {
		return c.checkExternalOnce(ctx, u)
	}

	key := parser.Normalize(u)
	if cached, ok := c.externalCache.Load(key); ok {
		return cached.(types.Outcome)
	}

	v, _, _ := c.external.Do(key, func() (interface{}, error) {
		outcome := c.checkExternalOnce(ctx, u)
		c.externalCache.Store(key, outcome)
		return outcome, nil
	})
	return v.(types.Outcome)
}

func (c *Crawler) checkExternalOnce(ctx context.Context, u *url.URL) types.Outcome {
	c.processed.Add(1)

	target := u.String()
	outcome := types.Outcome{URL: target}
	action := c.classifier.Classify(u)

	switch action.Kind {
	case classifier.KindProbe:
		// A failed probe is reported against the linked URL
		outcome.ProbeURL = action.ProbeURL
		resp, err := c.fetcher.Fetch(ctx, action.ProbeURL, http.MethodHead)
		if err != nil {
			return fetchFailure(outcome, err)
		}
		outcome.StatusCode = resp.StatusCode
		outcome.Status = types.StatusOK
		return outcome

	case classifier.KindAlwaysNotFound:
		resp, err := c.fetcher.Fetch(ctx, target, http.MethodGet)
		if err != nil {
			return fetchFailure(outcome, err)
		}
		outcome.StatusCode = resp.StatusCode
		outcome.Status = types.StatusOK
		return outcome
	}

	resp, err := c.fetcher.Fetch(ctx, target, http.MethodGet)
	if err != nil {
		return fetchFailure(outcome, err)
	}
	outcome.StatusCode = resp.StatusCode

	switch {
	case len(resp.Body) == 0:
		outcome.Status = types.StatusEmptyBody
		outcome.Err = &EmptyBodyError{URL: target}
	case action.Test.Match(resp.Body):
		outcome.Status = types.StatusSoftNotFound
		outcome.Err = &SoftNotFoundError{URL: target, Test: action.Test.String()}
	default:
		outcome.Status = types.StatusOK
	}
	return outcome
}
