// Package bookmarker files links into the aggregator post: it loads the
// settings, checks permission, signs a token, then creates the post or
// appends to it.
package bookmarker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/ghost"
	"github.com/MrSnakeDoc/ghostmark/internal/lexical"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

const unknownFailure = "Error trying to update or create post."

// TokenIssuer signs an Admin API token from a stored key.
type TokenIssuer interface {
	Issue(apiKey string) (string, error)
}

// PostRepository reads and writes the aggregator post.
type PostRepository interface {
	FetchAggregatorPost(ctx context.Context, site, token string) (*ghost.Post, error)
	CreateAggregatorPost(ctx context.Context, site, token string, doc *lexical.Document) (string, error)
	UpdateAggregatorPost(ctx context.Context, site string, post *ghost.Post, token string, doc *lexical.Document) (string, error)
}

// PreviewFetcher returns bookmark-card metadata, or false.
type PreviewFetcher interface {
	FetchPreview(ctx context.Context, site, token, link string) (*lexical.Preview, bool)
}

// PermissionChecker reports whether requests to a host pattern are allowed.
type PermissionChecker interface {
	HasPermission(ctx context.Context, pattern string) (bool, error)
}

// ConfigStore loads the saved settings. Missing settings are the zero
// value, not an error.
type ConfigStore interface {
	Load(ctx context.Context) (domain.Settings, error)
}

// Notifier receives the outcome of background submissions.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Recorder observes finished submissions, e.g. for metrics.
type Recorder interface {
	ObserveSubmission(mode Mode, outcome Outcome, code domain.Code, elapsed time.Duration)
}

// Mode is how a submission was triggered.
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeBackground  Mode = "background"
)

// Outcome is the result kind of a submission.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeFailed  Outcome = "failed"
)

// Stage names a step of a submission, logged on every transition.
type Stage string

const (
	StageCheckingPermission Stage = "checking_permission"
	StageIssuingToken       Stage = "issuing_token"
	StageFetchingPost       Stage = "fetching_post"
	StageCreating           Stage = "creating"
	StageUpdating           Stage = "updating"
	StageDone               Stage = "done"
	StageFailed             Stage = "failed"
)

// Result describes a saved bookmark.
type Result struct {
	UUID      string `json:"uuid"`
	EditorURL string `json:"editor_url"`
	Created   bool   `json:"created"`
}

// EditorURL is the Ghost editor page of a post.
func EditorURL(site, postUUID string) string {
	return fmt.Sprintf("%s/p/%s/edit", strings.TrimRight(site, "/"), postUUID)
}

// Deps are the collaborators of a Service. Previews, Notifier and Recorder
// are optional.
type Deps struct {
	Config      ConfigStore
	Permissions PermissionChecker
	Tokens      TokenIssuer
	Posts       PostRepository
	Previews    PreviewFetcher
	Notifier    Notifier
	Recorder    Recorder
	Logger      logger.Logger
	Now         func() time.Time
}

// Service runs submissions. It holds no per-submission state, so
// submissions may run concurrently; nothing serializes them.
type Service struct {
	config   ConfigStore
	perms    PermissionChecker
	tokens   TokenIssuer
	posts    PostRepository
	previews PreviewFetcher
	notifier Notifier
	recorder Recorder
	logger   logger.Logger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		config:   d.Config,
		perms:    d.Permissions,
		tokens:   d.Tokens,
		posts:    d.Posts,
		previews: d.Previews,
		notifier: d.Notifier,
		recorder: d.Recorder,
		logger:   d.Logger,
		now:      d.Now,
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit saves one bookmark and returns where it went. The error is always
// a *domain.Error.
func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	return s.submit(ctx, ModeInteractive, req)
}

// SubmitBackground saves one bookmark and hands the outcome to the
// notifier instead of returning it.
func (s *Service) SubmitBackground(ctx context.Context, req Request) {
	bm := req.bookmark()
	res, err := s.submit(ctx, ModeBackground, req)

	n := domain.Notification{ID: uuid.NewString(), CreatedAt: s.now()}
	if err != nil {
		n.Kind = domain.NotificationError
		n.Title = "Problem adding bookmark"
		n.Message = err.Error()
		n.Code = domain.CodeOf(err)
	} else {
		n.Kind = domain.NotificationSuccess
		n.Title = "Bookmark added to Ghost!"
		n.Message = "Link saved from " + bm.Hostname()
		n.PostUUID = res.UUID
		n.EditorURL = res.EditorURL
	}

	if s.notifier == nil {
		s.logger.Warn("no notifier configured, dropping notification", logger.String("title", n.Title))
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Error("failed to deliver notification", logger.String("id", n.ID), logger.Error(err))
	}
}

func (s *Service) submit(ctx context.Context, mode Mode, req Request) (Result, error) {
	start := s.now()
	res, err := s.run(ctx, mode, req)

	if s.recorder != nil {
		outcome := OutcomeUpdated
		switch {
		case err != nil:
			outcome = OutcomeFailed
		case res.Created:
			outcome = OutcomeCreated
		}
		s.recorder.ObserveSubmission(mode, outcome, codeOrEmpty(err), s.now().Sub(start))
	}
	return res, err
}

func codeOrEmpty(err error) domain.Code {
	if err == nil {
		return ""
	}
	return domain.CodeOf(err)
}

func (s *Service) run(ctx context.Context, mode Mode, req Request) (Result, error) {
	bm := req.bookmark()
	log := s.logger.With(logger.String("mode", string(mode)), logger.String("link", bm.Link))
	stage := StageCheckingPermission
	enter := func(next Stage) {
		log.Debug("bookmark stage", logger.String("from", string(stage)), logger.String("to", string(next)))
		stage = next
	}
	fail := func(err error) (Result, error) {
		de := classify(err)
		log.Warn("bookmark failed",
			logger.String("stage", string(stage)),
			logger.String("code", string(de.Code)),
			logger.Error(de))
		enter(StageFailed)
		return Result{}, de
	}

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return fail(fmt.Errorf("load settings: %w", err))
	}
	if !cfg.Configured() {
		return fail(domain.NewError(domain.CodeNotConfigured, nil))
	}
	if err := bm.Validate(); err != nil {
		return fail(err)
	}
	site := strings.TrimRight(cfg.APIURL, "/")

	allowed, err := s.perms.HasPermission(ctx, cfg.PermissionPattern())
	if err != nil || !allowed {
		return fail(domain.NewError(domain.CodeNoPermission, err))
	}

	enter(StageIssuingToken)
	token, err := s.tokens.Issue(cfg.APIKey)
	if err != nil {
		return fail(err)
	}

	enter(StageFetchingPost)
	post, err := s.posts.FetchAggregatorPost(ctx, site, token)
	if err != nil {
		return fail(err)
	}

	var (
		postUUID string
		created  = post == nil
	)
	if created {
		enter(StageCreating)
		doc := lexical.BuildNewPost(bm.Link, bm.Note, s.preview(ctx, site, token, bm.Link))
		postUUID, err = s.posts.CreateAggregatorPost(ctx, site, token, doc)
	} else {
		enter(StageUpdating)
		var doc *lexical.Document
		if doc, err = post.Document(); err != nil {
			return fail(err)
		}
		next := lexical.AppendToPost(doc, bm.Link, bm.Note, s.preview(ctx, site, token, bm.Link))
		postUUID, err = s.posts.UpdateAggregatorPost(ctx, site, post, token, next)
	}
	if err != nil {
		return fail(err)
	}

	enter(StageDone)
	log.Info("bookmark saved", logger.String("uuid", postUUID), logger.Bool("created", created))
	return Result{UUID: postUUID, EditorURL: EditorURL(site, postUUID), Created: created}, nil
}

func (s *Service) preview(ctx context.Context, site, token, link string) *lexical.Preview {
	if s.previews == nil {
		return nil
	}
	p, ok := s.previews.FetchPreview(ctx, site, token, link)
	if !ok {
		return nil
	}
	return p
}

// classify turns any failure into a *domain.Error. Already classified
// errors pass through.
func classify(err error) *domain.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewError(domain.CodeFailedRequest, err)
	}
	out := domain.Classify("", unknownFailure)
	out.Err = err
	return out
}
