package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/nexus/internal/attach"
	"github.com/csheth/nexus/internal/chat"
	"github.com/csheth/nexus/internal/pipeline"
	"github.com/csheth/nexus/internal/store"
)

const (
	generateTimeout = 5 * time.Minute
	syncTimeout     = time.Minute
	narrateTimeout  = 2 * time.Minute
)

type generateResultMsg struct {
	result *pipeline.Result
	err    error
}

type attachResultMsg struct {
	attachment chat.Attachment
	err        error
}

type syncSaveResultMsg struct {
	err error
}

type syncLoadResultMsg struct {
	messages []chat.Message
	err      error
}

type narrateResultMsg struct {
	messageID string
	audio     []byte
}

type signInResultMsg struct {
	remote RemoteStore
	err    error
}

type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func generateJob(responder Responder, prompt string, history []chat.Message, attachments []chat.Attachment) jobRunner {
	history = chat.FilterHistory(history)
	attachments = append([]chat.Attachment(nil), attachments...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, generateTimeout)
		defer cancel()
		result, err := responder.Generate(ctx, prompt, history, attachments)
		return generateResultMsg{result: result, err: err}, err
	}
}

func attachJob(path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		attachment, err := attach.Load(path)
		return attachResultMsg{attachment: attachment, err: err}, err
	}
}

func saveRemoteJob(remote RemoteStore, messages []chat.Message) jobRunner {
	snapshot := append([]chat.Message(nil), messages...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, syncTimeout)
		defer cancel()
		err := remote.SaveRemote(ctx, snapshot)
		return syncSaveResultMsg{err: err}, err
	}
}

func loadRemoteJob(remote RemoteStore) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, syncTimeout)
		defer cancel()
		messages, err := remote.LoadRemote(ctx)
		return syncLoadResultMsg{messages: messages, err: err}, err
	}
}

// narrateJob never fails: narration is best-effort and a nil payload simply
// means no audio.
func narrateJob(responder Responder, messageID, text string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, narrateTimeout)
		defer cancel()
		audio := responder.Narrate(ctx, text)
		return narrateResultMsg{messageID: messageID, audio: audio}, nil
	}
}

// reconnectJob re-establishes the Drive link from a cached token, without
// rerunning the consent flow.
func reconnectJob(connect RemoteFactory) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, syncTimeout)
		defer cancel()
		remote, err := connect(ctx)
		return signInResultMsg{remote: remote, err: err}, err
	}
}

func signInJob(session *store.Session, connect RemoteFactory, code string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, syncTimeout)
		defer cancel()
		if err := session.SignIn(ctx, code); err != nil {
			return signInResultMsg{err: err}, err
		}
		remote, err := connect(ctx)
		if err != nil {
			return signInResultMsg{err: err}, err
		}
		return signInResultMsg{remote: remote}, nil
	}
}
