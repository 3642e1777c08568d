package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/law-makers/ferryroutes/pkg/models"
	"github.com/rs/zerolog"
)

// Default form field names expected by the destinations endpoint
const (
	DefaultOriginField = "ticket_org"
	DefaultTokenField  = "_token"
)

// FormContentType is sent with every dependent request
const FormContentType = "application/x-www-form-urlencoded"

// Poster issues a single form-encoded POST and returns the response text.
// Implementations must return an error for non-2xx responses.
type Poster interface {
	PostForm(ctx context.Context, endpoint, body string) (string, error)
}

// Pacer blocks between two consecutive dependent requests.
type Pacer interface {
	Pause(ctx context.Context) error
}

// OriginFailure records a contained, per-origin fetch or parse failure.
type OriginFailure struct {
	Index    int
	OriginID int
	Err      error
}

// Report is the outcome of a resolution run
type Report struct {
	Records  models.ResultSet
	Failures []OriginFailure
}

// ResolverOptions configures a Resolver
type ResolverOptions struct {
	Endpoint    string
	OriginField string
	TokenField  string
	Poster      Poster
	Pacer       Pacer
	Logger      *zerolog.Logger
	// Progress, when set, is called after each origin is processed
	Progress func(done, total int)
}

// Resolver turns a session context into one record per origin, strictly one
// request at a time with a pause between requests.
type Resolver struct {
	endpoint    string
	originField string
	tokenField  string
	poster      Poster
	pacer       Pacer
	logger      zerolog.Logger
	progress    func(done, total int)
}

// NewResolver creates a Resolver
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if opts.Poster == nil {
		return nil, fmt.Errorf("poster is required")
	}
	if opts.OriginField == "" {
		opts.OriginField = DefaultOriginField
	}
	if opts.TokenField == "" {
		opts.TokenField = DefaultTokenField
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Resolver{
		endpoint:    opts.Endpoint,
		originField: opts.OriginField,
		tokenField:  opts.TokenField,
		poster:      opts.Poster,
		pacer:       opts.Pacer,
		logger:      logger,
		progress:    opts.Progress,
	}, nil
}

// FormBody builds "<originField>=<id>&<tokenField>=<token>" with the field order preserved.
func (r *Resolver) FormBody(originValue, token string) string {
	return r.originField + "=" + url.QueryEscape(originValue) + "&" + r.tokenField + "=" + url.QueryEscape(token)
}

// Resolve produces exactly len(sc.Origins) records in origin order.
//
// All labels and values are parsed before the first request; malformed input
// aborts the run without issuing any request. Fetch and parse failures for a
// single origin are logged and leave that record's Dest empty. A cancelled
// context aborts the run and no records are returned.
func (r *Resolver) Resolve(ctx context.Context, sc *models.SessionContext) (*Report, error) {
	if sc == nil || sc.Token == "" {
		return nil, NewExtractError(ErrCodeMissingToken, "no token to authorize requests", ErrMissingToken)
	}

	records := make(models.ResultSet, len(sc.Origins))
	for i, opt := range sc.Origins {
		rec, err := ParseOrigin(opt)
		if err != nil {
			var ee *ExtractError
			if errors.As(err, &ee) {
				ee.WithDetail("index", i)
			}
			return nil, err
		}
		records[i] = rec
	}

	report := &Report{Records: records}
	total := len(sc.Origins)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// The request carries the parsed id so it always matches the record
		dest, err := r.fetchDestinations(ctx, strconv.Itoa(records[i].ID), sc.Token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn().
				Err(err).
				Int("index", i).
				Int("origin_id", records[i].ID).
				Str("city", records[i].City).
				Msg("Failed to fetch destinations")
			report.Failures = append(report.Failures, OriginFailure{Index: i, OriginID: records[i].ID, Err: err})
		} else {
			records[i].Dest = dest
			r.logger.Debug().
				Int("index", i).
				Int("origin_id", records[i].ID).
				Str("dest", dest).
				Msg("Destinations resolved")
		}

		if r.progress != nil {
			r.progress(i+1, total)
		}

		if i < total-1 && r.pacer != nil {
			if err := r.pacer.Pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	return report, nil
}

func (r *Resolver) fetchDestinations(ctx context.Context, originValue, token string) (string, error) {
	body, err := r.poster.PostForm(ctx, r.endpoint, r.FormBody(originValue, token))
	if err != nil {
		return "", NewExtractError(ErrCodeNetworkError, "destination request failed", fmt.Errorf("%w: %w", ErrFetchFailed, err)).
			WithDetail("origin", originValue)
	}
	ids, err := ParseDestinations(body)
	if err != nil {
		return "", err
	}
	return JoinDestinations(ids), nil
}
