package encounter

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/encuentro-app/encuentro/internal/audio"
	"github.com/encuentro-app/encuentro/internal/gateway"
	"github.com/encuentro-app/encuentro/internal/ledger"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/internal/progress"
	"github.com/encuentro-app/encuentro/internal/words"
	"github.com/encuentro-app/encuentro/pkg/provider/llm"
	llmmock "github.com/encuentro-app/encuentro/pkg/provider/llm/mock"
	"github.com/encuentro-app/encuentro/pkg/provider/stt"
	sttmock "github.com/encuentro-app/encuentro/pkg/provider/stt/mock"
	"github.com/encuentro-app/encuentro/pkg/provider/tts"
	ttsmock "github.com/encuentro-app/encuentro/pkg/provider/tts/mock"
)

// testStack bundles the hermetic dependency graph for orchestrator tests.
type testStack struct {
	svc      *Service
	words    *words.MemStore
	progress *progress.MemStore
	ledger   *ledger.MemLedger
	llm      *llmmock.Provider
	stt      *sttmock.Transcriber
	tts      *ttsmock.Synthesizer
}

// stackAudioStore is a trivial in-memory audio store.
type stackAudioStore struct{}

func (stackAudioStore) Save(b []byte, format string) (*audio.Ref, error) {
	return &audio.Ref{
		URL:    "http://localhost/audio/reply.mp3",
		Path:   "/tmp/reply.mp3",
		Format: format,
		Bytes:  len(b),
	}, nil
}

var testWords = []words.Word{
	{ID: "w-hola", Spanish: "hola", English: "hello", Category: words.CategoryEncounter},
	{ID: "w-cuenta", Spanish: "la cuenta", English: "the bill", Category: words.CategoryEncounter},
	{ID: "w-gracias", Spanish: "gracias", English: "thank you", Category: words.CategoryHighFrequency},
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	em := observe.NewEmitter(nil, met)

	wordStore := words.NewMemStore(testWords...)
	progStore := progress.NewMemStore()
	led := ledger.NewMemLedger()

	llmProv := &llmmock.Provider{
		ProviderName:     "openai",
		ModelName:        "gpt-4o-mini",
		CompleteResponse: &llm.Response{Content: `{"assistant_text":"Anything else?","end_conversation":false}`},
	}
	sttProv := &sttmock.Transcriber{
		ProviderName:     "openai",
		ModelName:        "whisper-1",
		TranscribeResult: &stt.Result{Text: "hola, la cuenta por favor"},
	}
	ttsProv := &ttsmock.Synthesizer{
		ProviderName:     "openai",
		ModelName:        "tts-1",
		SynthesizeResult: &tts.Result{Audio: []byte("mp3"), Format: "mp3"},
	}

	cfg := gateway.Config{Attempts: 1}
	svc := NewService(
		wordStore,
		progStore,
		gateway.NewGeneration(llmProv, led, em, met, cfg),
		gateway.NewTranscription(sttProv, led, em, met, cfg),
		gateway.NewSynthesis(ttsProv, stackAudioStore{}, led, em, met, cfg),
		em, met,
		Config{},
	)

	return &testStack{
		svc:      svc,
		words:    wordStore,
		progress: progStore,
		ledger:   led,
		llm:      llmProv,
		stt:      sttProv,
		tts:      ttsProv,
	}
}

func allWordIDs() []string {
	ids := make([]string, len(testWords))
	for i, w := range testWords {
		ids[i] = w.ID
	}
	return ids
}

func TestStartOrReuseConversation_CreatesAndSeedsSeenCounts(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	user := uuid.New()

	conv, err := st.svc.StartOrReuseConversation(ctx, user, "cafe-ordering", progress.ModalitySpoken, allWordIDs())
	if err != nil {
		t.Fatalf("StartOrReuseConversation: %v", err)
	}
	if conv.Status != progress.StatusActive {
		t.Errorf("Status = %q", conv.Status)
	}

	for _, id := range allWordIDs() {
		uw, err := st.progress.GetUserWord(ctx, user, id)
		if err != nil {
			t.Fatalf("GetUserWord: %v", err)
		}
		if uw == nil || uw.SeenCount != 1 {
			t.Errorf("seen count for %s = %+v, want 1", id, uw)
		}
	}
}

func TestStartOrReuseConversation_ReusesActive(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := st.svc.StartOrReuseConversation(ctx, user, "cafe", progress.ModalityTyped, allWordIDs())
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := st.svc.StartOrReuseConversation(ctx, user, "cafe", progress.ModalityTyped, allWordIDs())
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.ID != second.ID {
		t.Error("second start created a new conversation instead of reusing")
	}

	// Reuse must not bump seen counts again.
	uw, err := st.progress.GetUserWord(ctx, user, "w-hola")
	if err != nil {
		t.Fatalf("GetUserWord: %v", err)
	}
	if uw.SeenCount != 1 {
		t.Errorf("SeenCount after reuse = %d, want 1", uw.SeenCount)
	}
}

func TestStartOrReuseConversation_UnknownWord(t *testing.T) {
	st := newTestStack(t)

	_, err := st.svc.StartOrReuseConversation(context.Background(), uuid.New(), "cafe", progress.ModalityTyped, []string{"w-hola", "w-nope"})
	if !errors.Is(err, ErrUnknownWordID) {
		t.Errorf("err = %v, want ErrUnknownWordID", err)
	}
}

func TestStartOrReuseConversation_InvalidModality(t *testing.T) {
	st := newTestStack(t)

	_, err := st.svc.StartOrReuseConversation(context.Background(), uuid.New(), "cafe", progress.Modality("singing"), allWordIDs())
	if !errors.Is(err, ErrInvalidModality) {
		t.Errorf("err = %v, want ErrInvalidModality", err)
	}
}

func TestMissingWords(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	user := uuid.New()

	conv, err := st.svc.StartOrReuseConversation(ctx, user, "cafe", progress.ModalityTyped, allWordIDs())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := st.svc.TypedTurn(ctx, user, conv.ID, "hola, ¿qué tal?"); err != nil {
		t.Fatalf("TypedTurn: %v", err)
	}

	missing, err := st.svc.MissingWords(ctx, user, conv.ID)
	if err != nil {
		t.Fatalf("MissingWords: %v", err)
	}
	want := []string{"w-cuenta", "w-gracias"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}
}

func TestMissingWords_NotFound(t *testing.T) {
	st := newTestStack(t)

	_, err := st.svc.MissingWords(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestLoadOwned_OtherUsersConversationHidden(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	owner := uuid.New()

	conv, err := st.svc.StartOrReuseConversation(ctx, owner, "cafe", progress.ModalityTyped, allWordIDs())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = st.svc.TypedTurn(ctx, uuid.New(), conv.ID, "hola")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}
