package tui

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/csheth/nexus/internal/chat"
	"github.com/csheth/nexus/internal/pipeline"
	"github.com/csheth/nexus/internal/store"
)

type stubResponder struct {
	result *pipeline.Result
	err    error
	calls  int
}

func (s *stubResponder) Generate(context.Context, string, []chat.Message, []chat.Attachment) (*pipeline.Result, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubResponder) Narrate(context.Context, string) []byte { return nil }

type stubRemote struct {
	saved  [][]chat.Message
	loaded []chat.Message
	err    error
}

func (s *stubRemote) SaveRemote(_ context.Context, messages []chat.Message) error {
	s.saved = append(s.saved, append([]chat.Message(nil), messages...))
	return s.err
}

func (s *stubRemote) LoadRemote(context.Context) ([]chat.Message, error) {
	return s.loaded, s.err
}

func newTestModel(t *testing.T, config Config) *model {
	t.Helper()
	if config.Local == nil {
		config.Local = store.NewLocal(filepath.Join(t.TempDir(), "cache.json"), nil)
	}
	m, ok := New(config).(*model)
	if !ok {
		t.Fatalf("New() did not return *model")
	}
	return m
}

func TestSendTurnAppendsUserMessageAndStartsJob(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.composer.SetValue("hello nexus")

	cmd := m.submitComposer()
	if cmd == nil {
		t.Fatalf("expected a generate command")
	}
	if len(m.messages) != 1 || m.messages[0].Role != chat.RoleUser {
		t.Fatalf("user message not appended: %#v", m.messages)
	}
	if !m.stage.busy() {
		t.Fatalf("stage should be busy after send")
	}
	if m.composer.Value() != "" {
		t.Fatalf("composer should clear after send")
	}
}

func TestSendTurnRefusedWhileBusy(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.stage = stageAnalyzing
	m.composer.SetValue("second prompt")

	if cmd := m.submitComposer(); cmd != nil {
		t.Fatalf("concurrent generate must be refused")
	}
	if len(m.messages) != 0 {
		t.Fatalf("refused turn must not touch the transcript")
	}
	if m.errorMessage == "" {
		t.Fatalf("expected an error message for the user")
	}
}

func TestGenerateSuccessAppendsThoughtFinalPair(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.stage = stageSynthesizing
	m.generateStarted = time.Now()

	result := &pipeline.Result{
		Raw:       "raw draft",
		Final:     "polished story",
		Grounding: []chat.GroundingChunk{{URI: "https://example.com", Title: "Example"}},
	}
	m.Update(generateResultMsg{result: result})

	if len(m.messages) != 2 {
		t.Fatalf("expected thought + final, got %d messages", len(m.messages))
	}
	thought, final := m.messages[0], m.messages[1]
	if !thought.IsThinking || thought.Content != "raw draft" {
		t.Fatalf("first entry must be the thought record: %#v", thought)
	}
	if final.IsThinking || final.Content != "polished story" {
		t.Fatalf("second entry must be the final record: %#v", final)
	}
	if len(final.Grounding) != 1 {
		t.Fatalf("grounding citations must ride on the final message")
	}
	if m.stage != stageIdle {
		t.Fatalf("stage must reset to idle")
	}

	reloaded := m.config.Local.Load()
	if len(reloaded) != 2 {
		t.Fatalf("transcript not mirrored to local cache: %d entries", len(reloaded))
	}
}

func TestGenerateSuccessTriggersRemoteSync(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.remote = &stubRemote{}
	m.stage = stageFlowing

	cmd := m.handleGenerateResult(generateResultMsg{result: &pipeline.Result{Raw: "r", Final: "f"}})
	if cmd == nil {
		t.Fatalf("expected an opportunistic sync command when signed in")
	}
}

func TestGenerateFailureAppendsApologyTurn(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.stage = stageAnalyzing
	m.generateStarted = time.Now()

	m.Update(generateResultMsg{err: errors.New("quota exceeded")})

	if len(m.messages) != 1 {
		t.Fatalf("expected exactly one synthetic model turn, got %d", len(m.messages))
	}
	apology := m.messages[0]
	if apology.Role != chat.RoleModel || apology.IsThinking {
		t.Fatalf("apology must be a plain model turn: %#v", apology)
	}
	if apology.Content != apologyText {
		t.Fatalf("unexpected apology content: %q", apology.Content)
	}
	if m.stage != stageIdle {
		t.Fatalf("stage must reset to idle so the user can retry")
	}
}

func TestAttachResultStagesAttachment(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	attachment := chat.Attachment{ID: "a1", Name: "file.txt", MimeType: "text/plain", Data: "aGk="}
	m.Update(attachResultMsg{attachment: attachment})

	if len(m.pendingAttachments) != 1 || m.pendingAttachments[0].Name != "file.txt" {
		t.Fatalf("attachment not staged: %#v", m.pendingAttachments)
	}
}

func TestSyncLoadReplacesTranscript(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.messages = []chat.Message{chat.NewModelMessage("stale")}

	restored := []chat.Message{
		chat.NewUserMessage("old question", nil),
		chat.NewModelMessage("old answer"),
	}
	m.Update(jobResultEnvelope{
		Snapshot: jobSnapshot{Kind: jobKindSyncLoad, Status: jobStatusSucceeded},
		Payload:  syncLoadResultMsg{messages: restored},
	})

	if len(m.messages) != 2 || m.messages[0].Content != "old question" {
		t.Fatalf("remote transcript not restored: %#v", m.messages)
	}
}

func TestSyncLoadAbsentRemoteKeepsTranscript(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.messages = []chat.Message{chat.NewModelMessage("keep me")}

	m.Update(syncLoadResultMsg{messages: nil})
	if len(m.messages) != 1 || m.messages[0].Content != "keep me" {
		t.Fatalf("absent remote data must not clobber the transcript")
	}
}

func signedInSession(t *testing.T) *store.Session {
	t.Helper()
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	data, err := json.Marshal(oauth2.Token{AccessToken: "access", RefreshToken: "refresh"})
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	if err := os.WriteFile(tokenPath, data, 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	session, err := store.Authenticate(store.SessionConfig{ClientID: "client-id", TokenPath: tokenPath})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	return session
}

func TestReconnectSkippedWithoutCachedToken(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	if cmd := m.reconnectCmd(); cmd != nil {
		t.Fatalf("reconnect must not run without a session")
	}
}

func TestReconnectRunsWithCachedToken(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	m := newTestModel(t, Config{
		Responder: &stubResponder{},
		Session:   signedInSession(t),
		ConnectRemote: func(context.Context) (RemoteStore, error) {
			return remote, nil
		},
	})
	if cmd := m.reconnectCmd(); cmd == nil {
		t.Fatalf("expected a reconnect command for a cached token")
	}
}

func TestSignInSuccessLinksRemoteAndPulls(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	m.awaitingCode = true

	_, cmd := m.Update(signInResultMsg{remote: &stubRemote{}})
	if m.remote == nil {
		t.Fatalf("remote store not linked after sign-in")
	}
	if m.awaitingCode {
		t.Fatalf("awaitingCode must reset after sign-in")
	}
	if cmd == nil {
		t.Fatalf("expected a remote pull after linking")
	}
}

func TestCommandsRequireSignIn(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, Config{Responder: &stubResponder{}})
	for _, command := range []string{"/sync", "/pull"} {
		if cmd := m.runCommand(command); cmd != nil {
			t.Fatalf("%s before sign-in must not start a job", command)
		}
		if m.errorMessage == "" {
			t.Fatalf("%s before sign-in should explain itself", command)
		}
		m.errorMessage = ""
	}
}

func TestStageForElapsedProgression(t *testing.T) {
	t.Parallel()

	cases := []struct {
		elapsed time.Duration
		want    stage
	}{
		{500 * time.Millisecond, stageDistributing},
		{2 * time.Second, stageAnalyzing},
		{4 * time.Second, stageFlowing},
		{8 * time.Second, stageSynthesizing},
		{30 * time.Second, stageReviewing},
	}
	for _, tc := range cases {
		if got := stageForElapsed(tc.elapsed); got != tc.want {
			t.Fatalf("stageForElapsed(%s) = %s, want %s", tc.elapsed, got.label(), tc.want.label())
		}
	}
}

func TestNodeGridLoadsStayBounded(t *testing.T) {
	t.Parallel()

	grid := newNodeGrid(42)
	for i := 0; i < 500; i++ {
		grid.tick(i%2 == 0)
	}
	for _, node := range grid.nodes {
		if node.load < 0 || node.load > 100 {
			t.Fatalf("node load out of range: %d", node.load)
		}
	}
}

func TestClearCommandPurgesTranscriptAndCache(t *testing.T) {
	t.Parallel()

	local := store.NewLocal(filepath.Join(t.TempDir(), "cache.json"), nil)
	local.Save([]chat.Message{chat.NewModelMessage("old")})

	m := newTestModel(t, Config{Responder: &stubResponder{}, Local: local})
	if len(m.messages) != 1 {
		t.Fatalf("expected cached transcript on startup")
	}
	m.runCommand("/clear")
	if len(m.messages) != 0 {
		t.Fatalf("transcript not cleared")
	}
	if got := local.Load(); len(got) != 0 {
		t.Fatalf("local cache not cleared: %#v", got)
	}
}
