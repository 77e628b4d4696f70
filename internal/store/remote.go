package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/csheth/nexus/internal/chat"
)

// RemoteDocumentName is the single Drive file mirroring the transcript.
const RemoteDocumentName = "nexus_omni_memory.json"

// FileRef identifies a remote document.
type FileRef struct {
	ID   string
	Name string
}

// driveAPI is the slice of Drive the sync store actually uses. The concrete
// service is swappable so tests can script the call sequence.
type driveAPI interface {
	ListByName(ctx context.Context, name string) ([]FileRef, error)
	Create(ctx context.Context, name string, content []byte) (FileRef, error)
	Update(ctx context.Context, id string, content []byte) error
	Download(ctx context.Context, id string) ([]byte, error)
}

// Remote mirrors the transcript to one named Drive document.
//
// The find-or-create sequence is not atomic: two sessions syncing at the
// same time can each create a document with the same name, after which
// updates land on whichever one the list call returns first. Accepted
// limitation for single-user operation; not masked here.
type Remote struct {
	api    driveAPI
	logger *zap.Logger
}

// NewRemote builds a Drive-backed mirror from a signed-in session.
func NewRemote(ctx context.Context, session *Session, logger *zap.Logger) (*Remote, error) {
	source, err := session.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	service, err := drive.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("store: create drive service: %w", err)
	}
	return newRemote(&driveService{service: service}, logger), nil
}

func newRemote(api driveAPI, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{api: api, logger: logger}
}

// SaveRemote snapshots the full transcript into the named document: update
// the first match in place if one exists, otherwise create it. Unlike the
// local cache, failures here propagate so the caller can show a sync-failed
// indicator.
func (r *Remote) SaveRemote(ctx context.Context, messages []chat.Message) error {
	content, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("store: serialize transcript: %w", err)
	}

	refs, err := r.api.ListByName(ctx, RemoteDocumentName)
	if err != nil {
		return fmt.Errorf("store: list remote documents: %w", err)
	}
	if len(refs) > 0 {
		if err := r.api.Update(ctx, refs[0].ID, content); err != nil {
			return fmt.Errorf("store: update remote document: %w", err)
		}
		r.logger.Info("transcript updated in Drive", zap.String("id", refs[0].ID))
		return nil
	}

	ref, err := r.api.Create(ctx, RemoteDocumentName, content)
	if err != nil {
		return fmt.Errorf("store: create remote document: %w", err)
	}
	r.logger.Info("transcript created in Drive", zap.String("id", ref.ID))
	return nil
}

// LoadRemote fetches the named document. An absent document yields
// (nil, nil); a document that does not hold a serialized transcript is
// treated the same way rather than surfacing a parse error.
func (r *Remote) LoadRemote(ctx context.Context) ([]chat.Message, error) {
	refs, err := r.api.ListByName(ctx, RemoteDocumentName)
	if err != nil {
		return nil, fmt.Errorf("store: list remote documents: %w", err)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	content, err := r.api.Download(ctx, refs[0].ID)
	if err != nil {
		return nil, fmt.Errorf("store: download remote document: %w", err)
	}
	var messages []chat.Message
	if err := json.Unmarshal(content, &messages); err != nil {
		r.logger.Warn("remote document malformed, treating as absent", zap.Error(err))
		return nil, nil
	}
	return messages, nil
}

// driveService adapts the Drive v3 client to the driveAPI surface.
type driveService struct {
	service *drive.Service
}

func (d *driveService) ListByName(ctx context.Context, name string) ([]FileRef, error) {
	query := fmt.Sprintf("name = '%s' and trashed = false", name)
	list, err := d.service.Files.List().Context(ctx).Q(query).Fields("files(id, name)").Do()
	if err != nil {
		return nil, err
	}
	refs := make([]FileRef, 0, len(list.Files))
	for _, file := range list.Files {
		refs = append(refs, FileRef{ID: file.Id, Name: file.Name})
	}
	return refs, nil
}

func (d *driveService) Create(ctx context.Context, name string, content []byte) (FileRef, error) {
	meta := &drive.File{Name: name, MimeType: "application/json"}
	file, err := d.service.Files.Create(meta).Context(ctx).Media(bytes.NewReader(content)).Fields("id, name").Do()
	if err != nil {
		return FileRef{}, err
	}
	return FileRef{ID: file.Id, Name: file.Name}, nil
}

func (d *driveService) Update(ctx context.Context, id string, content []byte) error {
	_, err := d.service.Files.Update(id, &drive.File{}).Context(ctx).Media(bytes.NewReader(content)).Do()
	return err
}

func (d *driveService) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := d.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
