package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/term"
)

// stubGateway answers Analyze from a scripted list of errors
type stubGateway struct {
	calls  atomic.Int32
	errs   []error
	block  bool
	result term.Analysis
}

func (s *stubGateway) Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error) {
	n := int(s.calls.Add(1)) - 1
	if s.block {
		<-ctx.Done()
		return term.Analysis{}, ctx.Err()
	}
	if n < len(s.errs) && s.errs[n] != nil {
		return term.Analysis{}, s.errs[n]
	}
	return s.result, nil
}

func (s *stubGateway) SynthesizeImage(ctx context.Context, termText, contextText string) (string, error) {
	return "data:image/png;base64,AA==", nil
}

func (s *stubGateway) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	return &audio.Buffer{SampleRate: 24000, Channels: 1, Samples: []float32{0}}, nil
}

func (s *stubGateway) Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error) {
	return "reply", nil
}

func (s *stubGateway) GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error) {
	return "story", nil
}

func (s *stubGateway) Name() string { return "stub" }

func newTestResilient(stub Gateway, cfg *Config) *Resilient {
	r := NewResilient(stub, cfg, nil)
	r.backoff = time.Millisecond
	return r
}

func TestResilientRetriesTransientOnce(t *testing.T) {
	stub := &stubGateway{
		errs:   []error{&Error{Kind: KindTransient, Err: errors.New("503")}},
		result: term.Analysis{Explanation: "ok"},
	}
	r := newTestResilient(stub, &Config{Retries: 1, Timeout: time.Second})

	a, err := r.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.NoError(t, err)
	assert.Equal(t, "ok", a.Explanation)
	assert.EqualValues(t, 2, stub.calls.Load())
}

func TestResilientGivesUpAfterRetries(t *testing.T) {
	transient := &Error{Kind: KindTransient, Err: errors.New("503")}
	stub := &stubGateway{errs: []error{transient, transient, transient}}
	r := newTestResilient(stub, &Config{Retries: 1, Timeout: time.Second})

	_, err := r.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransient))
	assert.EqualValues(t, 2, stub.calls.Load())
}

func TestResilientDoesNotRetryAuth(t *testing.T) {
	stub := &stubGateway{errs: []error{&Error{Kind: KindAuth, Err: errors.New("401")}}}
	r := newTestResilient(stub, &Config{Retries: 3, Timeout: time.Second})

	_, err := r.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	assert.True(t, IsKind(err, KindAuth))
	assert.EqualValues(t, 1, stub.calls.Load())
}

func TestResilientTimeout(t *testing.T) {
	stub := &stubGateway{block: true}
	r := newTestResilient(stub, &Config{Retries: 0, Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := r.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransient))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResilientBreakerOpens(t *testing.T) {
	transient := &Error{Kind: KindTransient, Err: errors.New("503")}
	stub := &stubGateway{errs: []error{transient, transient, transient, transient}}
	r := newTestResilient(stub, &Config{Retries: 0, Timeout: time.Second, BreakerFailures: 2, BreakerCooldown: time.Minute})

	en, es := catalog.MustLookup("en"), catalog.MustLookup("es")
	for i := 0; i < 2; i++ {
		_, err := r.Analyze(context.Background(), "Hello", en, es)
		require.Error(t, err)
	}

	_, err := r.Analyze(context.Background(), "Hello", en, es)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransient))
	assert.EqualValues(t, 2, stub.calls.Load(), "open breaker must not reach the provider")
}

func TestResilientPassesThrough(t *testing.T) {
	r := newTestResilient(&stubGateway{}, &Config{})
	ctx := context.Background()

	img, err := r.SynthesizeImage(ctx, "Hello", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AA==", img)

	buf, err := r.SynthesizeSpeech(ctx, "Hola", "Charon")
	require.NoError(t, err)
	assert.Equal(t, 24000, buf.SampleRate)

	reply, err := r.Converse(ctx, nil, "hi", term.Record{})
	require.NoError(t, err)
	assert.Equal(t, "reply", reply)

	story, err := r.GenerateStory(ctx, []string{"a"}, catalog.MustLookup("en"))
	require.NoError(t, err)
	assert.Equal(t, "story", story)
	assert.Equal(t, "stub", r.Name())
}

func TestNewUnconfigured(t *testing.T) {
	gw, err := New(context.Background(), &Config{Provider: ProviderGemini})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, gw.Name())

	_, err = gw.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
	assert.Contains(t, UserMessage(err), "GEMINI_API_KEY")

	gw, err = New(context.Background(), &Config{Provider: ProviderOpenAI})
	require.NoError(t, err)
	_, err = gw.GenerateStory(context.Background(), []string{"a"}, catalog.MustLookup("en"))
	assert.Contains(t, UserMessage(err), "OPENAI_API_KEY")
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &Config{Provider: "claude"})
	assert.Error(t, err)
}
