// Package tui is the themed terminal front end. It owns the transcript,
// feeds user turns to the response pipeline, and mirrors every mutation to
// the sync store. The swarm grid and session log are decoration.
package tui

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/csheth/nexus/internal/chat"
	"github.com/csheth/nexus/internal/pipeline"
	"github.com/csheth/nexus/internal/store"
)

// Responder is the slice of the pipeline the front end calls.
type Responder interface {
	Generate(ctx context.Context, prompt string, history []chat.Message, attachments []chat.Attachment) (*pipeline.Result, error)
	Narrate(ctx context.Context, text string) []byte
}

// RemoteStore mirrors the transcript to cloud storage.
type RemoteStore interface {
	SaveRemote(ctx context.Context, messages []chat.Message) error
	LoadRemote(ctx context.Context) ([]chat.Message, error)
}

// RemoteFactory builds the remote mirror once sign-in has completed.
type RemoteFactory func(ctx context.Context) (RemoteStore, error)

// Config wires runtime collaborators into the TUI program.
type Config struct {
	Responder     Responder
	ProviderName  string
	Local         *store.Local
	Session       *store.Session // nil disables cloud sync
	ConnectRemote RemoteFactory
	Logger        *zap.Logger
}

// New returns a tea.Model ready to be mounted into a Program. The local
// cache is read eagerly so a returning user sees their transcript at once.
func New(config Config) tea.Model {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	composer := textinput.New()
	composer.Placeholder = "Speak to the omni-consciousness…"
	composer.Focus()
	composer.CharLimit = composerLimit
	composer.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 16)
	vp.MouseWheelEnabled = true

	var messages []chat.Message
	if config.Local != nil {
		messages = config.Local.Load()
	}

	m := &model{
		config:          config,
		stage:           stageIdle,
		composer:        composer,
		spinner:         spin,
		viewport:        vp,
		grid:            newNodeGrid(time.Now().UnixNano()),
		jobs:            newJobBus(config.Logger),
		messages:        messages,
		transcriptDirty: true,
		infoMessage:     "Type a prompt and press Enter. /signin links Google Drive.",
	}
	m.pushLog(logInfo, fmt.Sprintf("Memory core loaded (%d entries).", len(messages)))
	return m
}

type model struct {
	config Config
	stage  stage

	composer textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	grid     *nodeGrid
	jobs     *jobBus

	messages           []chat.Message
	pendingAttachments []chat.Attachment
	logs               []logEntry

	remote       RemoteStore
	awaitingCode bool
	lastSyncAt   time.Time
	syncing      bool

	generateStarted time.Time

	width           int
	height          int
	transcriptDirty bool
	infoMessage     string
	errorMessage    string
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, animTick()}
	if cmd := m.reconnectCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// reconnectCmd relinks Drive at startup when a cached token is still usable,
// so a returning user gets their remote transcript without /signin.
func (m *model) reconnectCmd() tea.Cmd {
	if m.config.Session == nil || !m.config.Session.SignedIn() {
		return nil
	}
	m.pushLog(logInfo, "Cached Drive credentials found, relinking…")
	return m.jobs.Start(jobKindSignIn, reconnectJob(m.connectRemote()))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submitComposer()
		}
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd

	case animTickMsg:
		m.grid.tick(m.stage.busy())
		if m.stage.busy() && m.stage != stageSpeaking && !m.generateStarted.IsZero() {
			m.stage = stageForElapsed(time.Since(m.generateStarted))
		}
		return m, animTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case jobSignalMsg:
		if msg.Snapshot.Kind == jobKindSyncSave || msg.Snapshot.Kind == jobKindSyncLoad {
			m.syncing = msg.Snapshot.Status == jobStatusRunning
		}
		return m, nil

	case jobResultEnvelope:
		if msg.Snapshot.Kind == jobKindSyncSave || msg.Snapshot.Kind == jobKindSyncLoad {
			m.syncing = false
		}
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)

	case generateResultMsg:
		return m, m.handleGenerateResult(msg)

	case attachResultMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.errorMessage = ""
		m.pendingAttachments = append(m.pendingAttachments, msg.attachment)
		m.infoMessage = fmt.Sprintf("Attached %s (%s).", msg.attachment.Name, msg.attachment.MimeType)
		m.pushLog(logSuccess, "Payload staged: "+msg.attachment.Name)
		return m, nil

	case syncSaveResultMsg:
		if msg.err != nil {
			m.errorMessage = "Cloud sync failed: " + msg.err.Error()
			m.pushLog(logError, "Cloud sync failed.")
			return m, nil
		}
		m.lastSyncAt = time.Now()
		m.errorMessage = ""
		m.pushLog(logSuccess, "Memory mirrored to Drive.")
		return m, nil

	case syncLoadResultMsg:
		return m, m.handleSyncLoad(msg)

	case narrateResultMsg:
		m.stage = stageIdle
		if len(msg.audio) == 0 {
			m.pushLog(logWarn, "Narration unavailable.")
			return m, nil
		}
		m.attachAudio(msg.messageID, msg.audio)
		m.saveLocal()
		m.pushLog(logSuccess, "Narration synthesized.")
		return m, nil

	case signInResultMsg:
		m.awaitingCode = false
		if msg.err != nil {
			m.errorMessage = "Sign-in failed: " + msg.err.Error()
			m.pushLog(logError, "Drive link rejected.")
			return m, nil
		}
		m.remote = msg.remote
		m.errorMessage = ""
		m.infoMessage = "Drive linked. /sync pushes, /pull fetches."
		m.pushLog(logSuccess, "Cloud link established.")
		return m, m.jobs.Start(jobKindSyncLoad, loadRemoteJob(m.remote))
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m *model) submitComposer() tea.Cmd {
	text := strings.TrimSpace(m.composer.Value())
	if text == "" && len(m.pendingAttachments) == 0 {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		m.composer.SetValue("")
		return m.runCommand(text)
	}
	return m.sendTurn(text)
}

func (m *model) runCommand(input string) tea.Cmd {
	command, argument, _ := strings.Cut(input, " ")
	argument = strings.TrimSpace(argument)

	switch command {
	case "/attach":
		if argument == "" {
			m.errorMessage = "Usage: /attach <path>"
			return nil
		}
		return m.jobs.Start(jobKindAttach, attachJob(argument))

	case "/signin":
		return m.beginSignIn()

	case "/code":
		if !m.awaitingCode || m.config.Session == nil {
			m.errorMessage = "Run /signin first."
			return nil
		}
		if argument == "" {
			m.errorMessage = "Usage: /code <consent code>"
			return nil
		}
		return m.jobs.Start(jobKindSignIn, signInJob(m.config.Session, m.connectRemote(), argument))

	case "/sync":
		if m.remote == nil {
			m.errorMessage = "Not signed in. Run /signin."
			return nil
		}
		return m.jobs.Start(jobKindSyncSave, saveRemoteJob(m.remote, m.messages))

	case "/pull":
		if m.remote == nil {
			m.errorMessage = "Not signed in. Run /signin."
			return nil
		}
		return m.jobs.Start(jobKindSyncLoad, loadRemoteJob(m.remote))

	case "/speak":
		return m.beginNarration()

	case "/clear":
		m.messages = nil
		m.transcriptDirty = true
		if m.config.Local != nil {
			m.config.Local.Clear()
		}
		m.pushLog(logWarn, "Memory core purged.")
		return nil

	default:
		m.errorMessage = "Unknown command: " + command
		return nil
	}
}

// sendTurn guards against overlapping generations: the pipeline offers no
// cross-call ordering, so input is refused while a turn is outstanding.
func (m *model) sendTurn(text string) tea.Cmd {
	if m.stage.busy() {
		m.errorMessage = "The swarm is still working. Wait for the current turn."
		return nil
	}
	if m.config.Responder == nil {
		m.errorMessage = "No model configured. Set GEMINI_API_KEY and restart."
		return nil
	}

	userMsg := chat.NewUserMessage(text, m.pendingAttachments)
	m.messages = append(m.messages, userMsg)
	m.transcriptDirty = true
	m.saveLocal()

	attachments := m.pendingAttachments
	m.pendingAttachments = nil
	m.composer.SetValue("")
	m.errorMessage = ""
	m.infoMessage = ""
	m.stage = stageDistributing
	m.generateStarted = time.Now()
	m.pushLog(logSuccess, "Ingesting user intent: "+preview(text, 28))
	m.pushLog(logInfo, "Distributing across cognitive clusters…")

	history := m.messages[:len(m.messages)-1]
	return m.jobs.Start(jobKindGenerate, generateJob(m.config.Responder, text, history, attachments))
}

func (m *model) handleGenerateResult(msg generateResultMsg) tea.Cmd {
	m.stage = stageIdle
	m.generateStarted = time.Time{}

	if msg.err != nil {
		m.pushLog(logError, "Reality collapse detected (API error).")
		m.messages = append(m.messages, chat.NewModelMessage(apologyText))
		m.transcriptDirty = true
		m.saveLocal()
		return nil
	}

	// A thought entry is always immediately followed by its paired final
	// entry; the transcript never holds one without the other.
	thought := chat.NewThoughtMessage(msg.result.Raw)
	final := chat.NewModelMessage(msg.result.Final)
	final.Grounding = msg.result.Grounding
	m.messages = append(m.messages, thought, final)
	m.transcriptDirty = true
	m.saveLocal()
	m.pushLog(logSuccess, "Masterpiece delivered.")

	if m.remote != nil {
		return m.jobs.Start(jobKindSyncSave, saveRemoteJob(m.remote, m.messages))
	}
	return nil
}

func (m *model) handleSyncLoad(msg syncLoadResultMsg) tea.Cmd {
	if msg.err != nil {
		m.errorMessage = "Cloud fetch failed: " + msg.err.Error()
		m.pushLog(logError, "Cloud fetch failed.")
		return nil
	}
	if msg.messages == nil {
		m.infoMessage = "No remote memory found."
		return nil
	}
	m.messages = msg.messages
	m.transcriptDirty = true
	m.lastSyncAt = time.Now()
	m.saveLocal()
	m.pushLog(logSuccess, fmt.Sprintf("Remote memory restored (%d entries).", len(msg.messages)))
	return nil
}

func (m *model) beginSignIn() tea.Cmd {
	if m.config.Session == nil {
		m.errorMessage = "Cloud sync disabled: no OAuth client id configured."
		return nil
	}
	m.awaitingCode = true
	m.infoMessage = "Authorize in your browser, then run /code <consent code>."
	m.pushLog(logInfo, "Consent URL: "+m.config.Session.AuthURL())
	return nil
}

func (m *model) beginNarration() tea.Cmd {
	if m.config.Responder == nil {
		m.errorMessage = "No model configured."
		return nil
	}
	target := m.lastFinalMessage()
	if target == nil {
		m.errorMessage = "Nothing to narrate yet."
		return nil
	}
	m.stage = stageSpeaking
	m.pushLog(logInfo, "Synthesizing narration…")
	return m.jobs.Start(jobKindNarrate, narrateJob(m.config.Responder, target.ID, target.Content))
}

func (m *model) lastFinalMessage() *chat.Message {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == chat.RoleModel && !m.messages[i].IsThinking {
			return &m.messages[i]
		}
	}
	return nil
}

func (m *model) attachAudio(messageID string, audio []byte) {
	for i := range m.messages {
		if m.messages[i].ID == messageID {
			m.messages[i].AudioData = base64.StdEncoding.EncodeToString(audio)
			m.transcriptDirty = true
			return
		}
	}
}

func (m *model) connectRemote() RemoteFactory {
	if m.config.ConnectRemote != nil {
		return m.config.ConnectRemote
	}
	session := m.config.Session
	logger := m.config.Logger
	return func(ctx context.Context) (RemoteStore, error) {
		return store.NewRemote(ctx, session, logger)
	}
}

func (m *model) saveLocal() {
	if m.config.Local != nil {
		m.config.Local.Save(m.messages)
	}
}

func (m *model) pushLog(level logLevel, message string) {
	m.logs = append(m.logs, logEntry{At: time.Now(), Level: level, Message: message})
	if len(m.logs) > logHistoryLimit {
		m.logs = m.logs[len(m.logs)-logHistoryLimit:]
	}
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height
	vpWidth := width - viewportHorizontalPadding
	if vpWidth < minViewportWidth {
		vpWidth = minViewportWidth
	}
	m.viewport.Width = vpWidth
	vpHeight := height - 18
	if vpHeight < 6 {
		vpHeight = 6
	}
	m.viewport.Height = vpHeight
	m.composer.Width = vpWidth - 4
	m.transcriptDirty = true
}

func preview(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return "\"" + text + "\""
	}
	return "\"" + string(runes[:limit]) + "…\""
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userLabelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	modelLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	thoughtStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	groundingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	stageBadgeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")).Padding(0, 1)
	idleBadgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("240")).Padding(0, 1)

	logInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	logWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	logSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	logErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	gridLogicStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	gridCreativeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	gridConsciousnessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	gridNarratorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	gridSentinelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	gridArchivistStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)
