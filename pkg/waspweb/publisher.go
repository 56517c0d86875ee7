package waspweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb/directive"
	"github.com/waspscripts/wasp-web/pkg/waspweb/objectkey"
)

// Validation messages returned by Publisher.Create.
const (
	MsgScriptFileMissing  = "Script file is missing!"
	MsgCoverImageMissing  = "Cover image is missing!"
	MsgBannerImageMissing = "Banner image is missing!"
)

// CreateScriptRequest contains parameters for publishing a new script
type CreateScriptRequest struct {
	Script Script
	File   *File
	Cover  *File
	Banner *File
}

// UpdateScriptRequest contains parameters for updating a published script.
// Script.Protected.Revision must hold the script's current revision; a new
// File is stored as the next one. Cover and Banner are optional.
type UpdateScriptRequest struct {
	Script Script
	File   *File
	Cover  *File
	Banner *File
}

// PublishResult is returned once the script row was written. Uploads holds
// the asset uploads, which may still be running.
type PublishResult struct {
	Script   *Script
	Revision int
	Uploads  *UploadBatch
}

// Publisher runs the script publication workflow: metadata row first, then
// the stamped script file and images.
type Publisher struct {
	repository   ScriptRepository
	uploader     *Uploader
	awaitUploads bool
	logger       *slog.Logger
}

// PublisherOption represents a functional option for configuring the Publisher
type PublisherOption func(*Publisher)

// WithAwaitUploads makes Create and Update wait for their uploads and fail
// when one of them failed.
func WithAwaitUploads(await bool) PublisherOption {
	return func(p *Publisher) {
		p.awaitUploads = await
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a Publisher.
func NewPublisher(repository ScriptRepository, uploader *Uploader, options ...PublisherOption) (*Publisher, error) {
	if repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}

	p := &Publisher{
		repository: repository,
		uploader:   uploader,
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// Create publishes a new script. The repository assigns the script ID and the
// file is stored as revision 1.
func (p *Publisher) Create(ctx context.Context, req CreateScriptRequest) (*PublishResult, error) {
	switch {
	case req.File == nil:
		return nil, p.invalid("create", MsgScriptFileMissing)
	case req.Cover == nil:
		return nil, p.invalid("create", MsgCoverImageMissing)
	case req.Banner == nil:
		return nil, p.invalid("create", MsgBannerImageMissing)
	}

	script := req.Script
	script.Protected.Revision = 1
	if err := p.repository.CreateScript(ctx, &script); err != nil {
		p.logger.Error("Failed to insert script", "title", script.Title, "err", err)
		publicationsTotal.WithLabelValues("create", "error").Inc()
		return nil, Upstream(err.Error(), &ScriptError{Op: "create", Err: err})
	}

	batch := &UploadBatch{}
	if err := p.uploadScriptFile(ctx, batch, script.ID, script.Protected.Revision, req.File); err != nil {
		return nil, err
	}
	batch.Add(p.uploader.Upload(ctx, BucketImages, objectkey.Cover(script.ID), *req.Cover))
	batch.Add(p.uploader.Upload(ctx, BucketImages, objectkey.Banner(script.ID), *req.Banner))

	return p.finish(ctx, "create", &script, batch)
}

// Update writes the script's public metadata and stores whichever files were
// supplied. A metadata failure aborts before any upload is attempted.
func (p *Publisher) Update(ctx context.Context, req UpdateScriptRequest) (*PublishResult, error) {
	script := req.Script
	if script.ID == uuid.Nil {
		return nil, p.invalid("update", "Script ID is missing!")
	}
	if req.File != nil && script.Protected.Revision+1 > objectkey.MaxRevision {
		return nil, p.invalid("update", "Script revision limit reached!")
	}

	if err := p.repository.UpdateScript(ctx, &script); err != nil {
		p.logger.Error("Failed to update script", "script_id", script.ID, "err", err)
		publicationsTotal.WithLabelValues("update", "error").Inc()
		return nil, Upstream(err.Error(), &ScriptError{ScriptID: script.ID, Op: "update", Err: err})
	}

	batch := &UploadBatch{}
	if req.File != nil {
		revision := script.Protected.Revision + 1
		if err := p.repository.SetScriptRevision(ctx, script.ID, revision); err != nil {
			p.logger.Error("Failed to bump script revision", "script_id", script.ID, "revision", revision, "err", err)
			publicationsTotal.WithLabelValues("update", "error").Inc()
			return nil, Upstream(err.Error(), &ScriptError{ScriptID: script.ID, Op: "set_revision", Err: err})
		}
		script.Protected.Revision = revision

		if err := p.uploadScriptFile(ctx, batch, script.ID, revision, req.File); err != nil {
			return nil, err
		}
	}
	if req.Cover != nil {
		batch.Add(p.uploader.Upload(ctx, BucketImages, objectkey.Cover(script.ID), *req.Cover))
	}
	if req.Banner != nil {
		batch.Add(p.uploader.Upload(ctx, BucketImages, objectkey.Banner(script.ID), *req.Banner))
	}

	return p.finish(ctx, "update", &script, batch)
}

// Download opens a stored script file. A revision of 0 selects the script's
// current revision.
func (p *Publisher) Download(ctx context.Context, id uuid.UUID, revision int) (io.ReadCloser, error) {
	if revision == 0 {
		script, err := p.repository.GetScript(ctx, id)
		if err != nil {
			if errors.Is(err, ErrScriptNotFound) {
				return nil, NotFound("Script not found!", err)
			}
			return nil, Upstream(err.Error(), &ScriptError{ScriptID: id, Op: "get", Err: err})
		}
		revision = script.Protected.Revision
	}

	store, err := p.uploader.Store(BucketScripts)
	if err != nil {
		return nil, Upstream(err.Error(), err)
	}

	key := objectkey.Script(id, revision)
	rc, err := store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, NotFound("Script revision not found!", err)
		}
		return nil, Upstream(err.Error(), &StorageError{Bucket: BucketScripts, Key: key, Op: "download", Err: err})
	}
	return rc, nil
}

// uploadScriptFile stamps file with id and revision and starts its upload.
// Every revision is stored under the same file name so it can be fetched
// regardless of what the author called it.
func (p *Publisher) uploadScriptFile(ctx context.Context, batch *UploadBatch, id uuid.UUID, revision int, file *File) error {
	text, err := directive.Patch(string(file.Data), id.String(), revision)
	if err != nil {
		return &Failure{Kind: KindValidation, Message: err.Error(), Err: err}
	}

	stamped := File{
		Name:        file.Name,
		ContentType: "text/plain",
		Data:        []byte(text),
	}
	batch.Add(p.uploader.Upload(ctx, BucketScripts, objectkey.Script(id, revision), stamped))
	return nil
}

func (p *Publisher) finish(ctx context.Context, op string, script *Script, batch *UploadBatch) (*PublishResult, error) {
	if p.awaitUploads {
		if err := batch.Wait(ctx); err != nil {
			publicationsTotal.WithLabelValues(op, "upload_error").Inc()
			return nil, Upstream("Failed to upload script files!", err)
		}
	}

	publicationsTotal.WithLabelValues(op, "success").Inc()
	p.logger.Info("Published script", "op", op, "script_id", script.ID, "revision", script.Protected.Revision)

	return &PublishResult{
		Script:   script,
		Revision: script.Protected.Revision,
		Uploads:  batch,
	}, nil
}

func (p *Publisher) invalid(op, message string) error {
	p.logger.Error(message, "op", op)
	publicationsTotal.WithLabelValues(op, "invalid").Inc()
	return Validation(message)
}
