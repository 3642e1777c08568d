package extract

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/law-makers/ferryroutes/pkg/models"
)

// fakePoster answers from a table keyed by request body and fails for unknown bodies
type fakePoster struct {
	responses map[string]string
	calls     []string
	inFlight  int32
	overlap   bool
	onCall    func(n int)
}

func (f *fakePoster) PostForm(ctx context.Context, endpoint, body string) (string, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		f.overlap = true
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	f.calls = append(f.calls, body)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	if resp, ok := f.responses[body]; ok {
		return resp, nil
	}
	return "", &StatusError{StatusCode: 500, Status: "500 Internal Server Error"}
}

type countingPacer struct {
	pauses int
	err    error
}

func (p *countingPacer) Pause(ctx context.Context) error {
	p.pauses++
	return p.err
}

func newTestResolver(t *testing.T, poster Poster, pacer Pacer) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverOptions{
		Endpoint: "https://example.test/getdes",
		Poster:   poster,
		Pacer:    pacer,
	})
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	return r
}

func TestResolver_EndToEndExample(t *testing.T) {
	poster := &fakePoster{responses: map[string]string{
		"ticket_org=1&_token=abc123": `<option value="">Pilih</option><option value="2">Surabaya</option><option value="3">Makassar</option>`,
	}}
	pacer := &countingPacer{}
	r := newTestResolver(t, poster, pacer)

	sc := &models.SessionContext{
		Token: "abc123",
		Origins: []models.OriginOption{
			{Value: "1", Label: "Jakarta|JKT - Jakarta Port"},
			{Value: "2", Label: "Surabaya|SUB - Tanjung Perak"},
		},
	}

	report, err := r.Resolve(context.Background(), sc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := models.ResultSet{
		{ID: 1, Code: "JKT", Name: "Jakarta Port", City: "Jakarta", Dest: "2,3"},
		{ID: 2, Code: "SUB", Name: "Tanjung Perak", City: "Surabaya", Dest: ""},
	}
	if diff := cmp.Diff(want, report.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if len(report.Failures) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(report.Failures))
	}
	if f := report.Failures[0]; f.Index != 1 || f.OriginID != 2 {
		t.Errorf("unexpected failure record: %+v", f)
	}
	if !errors.Is(report.Failures[0].Err, ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", report.Failures[0].Err)
	}

	if pacer.pauses != 1 {
		t.Errorf("Expected 1 pause between 2 origins, got %d", pacer.pauses)
	}
	if poster.overlap {
		t.Error("dependent requests overlapped")
	}
}

func TestResolver_AllFetchesFail(t *testing.T) {
	poster := &fakePoster{}
	r := newTestResolver(t, poster, &countingPacer{})

	sc := &models.SessionContext{Token: "t"}
	for _, v := range []string{"10", "11", "12", "13"} {
		sc.Origins = append(sc.Origins, models.OriginOption{Value: v, Label: "Kota|K" + v + " - Pelabuhan " + v})
	}

	report, err := r.Resolve(context.Background(), sc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(report.Records) != len(sc.Origins) {
		t.Fatalf("Expected %d records, got %d", len(sc.Origins), len(report.Records))
	}
	for i, rec := range report.Records {
		if rec.Dest != "" {
			t.Errorf("record %d: expected empty dest, got %q", i, rec.Dest)
		}
		if rec.City != "Kota" || rec.Code != "K"+sc.Origins[i].Value {
			t.Errorf("record %d: label fields not populated: %+v", i, rec)
		}
	}
	if len(report.Failures) != 4 {
		t.Errorf("Expected 4 failures, got %d", len(report.Failures))
	}
}

func TestResolver_MalformedLabelAbortsBeforeRequests(t *testing.T) {
	poster := &fakePoster{}
	r := newTestResolver(t, poster, &countingPacer{})

	sc := &models.SessionContext{
		Token: "t",
		Origins: []models.OriginOption{
			{Value: "1", Label: "Jakarta|JKT - Jakarta Port"},
			{Value: "2", Label: "Surabaya SUB Tanjung Perak"},
		},
	}

	report, err := r.Resolve(context.Background(), sc)
	if err == nil {
		t.Fatalf("expected malformed input error, got %+v", report)
	}
	if !IsMalformedInput(err) {
		t.Errorf("expected MALFORMED_INPUT, got %v", err)
	}
	if len(poster.calls) != 0 {
		t.Errorf("Expected no requests, got %d", len(poster.calls))
	}
}

func TestResolver_NonNumericValueAborts(t *testing.T) {
	r := newTestResolver(t, &fakePoster{}, nil)

	sc := &models.SessionContext{
		Token:   "t",
		Origins: []models.OriginOption{{Value: "x1", Label: "A|B - C"}},
	}

	_, err := r.Resolve(context.Background(), sc)
	if !errors.Is(err, ErrMalformedValue) {
		t.Errorf("expected ErrMalformedValue, got %v", err)
	}
}

func TestResolver_MissingToken(t *testing.T) {
	poster := &fakePoster{}
	r := newTestResolver(t, poster, nil)

	_, err := r.Resolve(context.Background(), &models.SessionContext{
		Origins: []models.OriginOption{{Value: "1", Label: "A|B - C"}},
	})
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
	if len(poster.calls) != 0 {
		t.Errorf("Expected no requests, got %d", len(poster.calls))
	}
}

func TestResolver_CancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poster := &fakePoster{
		responses: map[string]string{
			"ticket_org=1&_token=t": `<option value="2">x</option>`,
			"ticket_org=2&_token=t": `<option value="1">x</option>`,
			"ticket_org=3&_token=t": `<option value="1">x</option>`,
		},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	r := newTestResolver(t, poster, &countingPacer{})

	sc := &models.SessionContext{
		Token: "t",
		Origins: []models.OriginOption{
			{Value: "1", Label: "A|AA - A"},
			{Value: "2", Label: "B|BB - B"},
			{Value: "3", Label: "C|CC - C"},
		},
	}

	report, err := r.Resolve(ctx, sc)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report != nil {
		t.Errorf("expected no partial report, got %+v", report)
	}
	if len(poster.calls) != 2 {
		t.Errorf("Expected 2 requests before abort, got %d", len(poster.calls))
	}
}

func TestResolver_PacerErrorAborts(t *testing.T) {
	poster := &fakePoster{}
	pacer := &countingPacer{err: context.DeadlineExceeded}
	r := newTestResolver(t, poster, pacer)

	sc := &models.SessionContext{
		Token: "t",
		Origins: []models.OriginOption{
			{Value: "1", Label: "A|AA - A"},
			{Value: "2", Label: "B|BB - B"},
		},
	}

	if _, err := r.Resolve(context.Background(), sc); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if len(poster.calls) != 1 {
		t.Errorf("Expected 1 request, got %d", len(poster.calls))
	}
}

func TestResolver_Idempotent(t *testing.T) {
	poster := &fakePoster{responses: map[string]string{
		"ticket_org=1&_token=t": `<option value="5">x</option><option value="4">y</option>`,
		"ticket_org=2&_token=t": `<option value="1">x</option>`,
	}}
	r := newTestResolver(t, poster, nil)

	sc := &models.SessionContext{
		Token: "t",
		Origins: []models.OriginOption{
			{Value: "1", Label: "A|AA - A"},
			{Value: "2", Label: "B|BB - B"},
		},
	}

	first, err := r.Resolve(context.Background(), sc)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := r.Resolve(context.Background(), sc)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestResolver_ProgressAndFormBody(t *testing.T) {
	poster := &fakePoster{}
	var seen []int
	r, err := NewResolver(ResolverOptions{
		Endpoint:    "https://example.test/getdes",
		OriginField: "org",
		TokenField:  "tok",
		Poster:      poster,
		Progress:    func(done, total int) { seen = append(seen, done*10+total) },
	})
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if got := r.FormBody("1", "a+b/c="); got != "org=1&tok=a%2Bb%2Fc%3D" {
		t.Errorf("unexpected form body %q", got)
	}

	sc := &models.SessionContext{
		Token:   "t",
		Origins: []models.OriginOption{{Value: "1", Label: "A|AA - A"}, {Value: "2", Label: "B|BB - B"}},
	}
	if _, err := r.Resolve(context.Background(), sc); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]int{12, 22}, seen); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_RequestUsesParsedID(t *testing.T) {
	poster := &fakePoster{responses: map[string]string{
		"ticket_org=12&_token=t": `<option value="31">Batam</option>`,
		"ticket_org=7&_token=t":  `<option value="45">Kijang</option>`,
	}}
	r := newTestResolver(t, poster, &countingPacer{})

	sc := &models.SessionContext{
		Token: "t",
		Origins: []models.OriginOption{
			{Value: " 12", Label: "Jakarta|TPK - Tanjung Priok"},
			{Value: "+7 ", Label: "Surabaya|SUB - Tanjung Perak"},
		},
	}

	report, err := r.Resolve(context.Background(), sc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"ticket_org=12&_token=t", "ticket_org=7&_token=t"}, poster.calls); diff != "" {
		t.Errorf("request bodies mismatch (-want +got):\n%s", diff)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	for i, want := range []struct {
		id   int
		dest string
	}{{12, "31"}, {7, "45"}} {
		if report.Records[i].ID != want.id || report.Records[i].Dest != want.dest {
			t.Errorf("record %d = %+v, want id %d dest %q", i, report.Records[i], want.id, want.dest)
		}
	}
}

func TestNewResolver_Validation(t *testing.T) {
	if _, err := NewResolver(ResolverOptions{Poster: &fakePoster{}}); err == nil {
		t.Error("expected error for missing endpoint")
	}
	if _, err := NewResolver(ResolverOptions{Endpoint: "https://example.test"}); err == nil {
		t.Error("expected error for missing poster")
	}
}
