package bookmarker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/ghost"
	"github.com/MrSnakeDoc/ghostmark/internal/lexical"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

const testSite = "https://blog.example.com"

type staticConfig struct {
	settings domain.Settings
	err      error
}

func (c staticConfig) Load(context.Context) (domain.Settings, error) { return c.settings, c.err }

type allowAll struct {
	mu      sync.Mutex
	allowed bool
	asked   []string
}

func (a *allowAll) HasPermission(_ context.Context, pattern string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.asked = append(a.asked, pattern)
	return a.allowed, nil
}

type stubTokens struct{ err error }

func (s stubTokens) Issue(string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "signed", nil
}

// memoryPosts is an in-memory aggregator post store.
type memoryPosts struct {
	mu      sync.Mutex
	post    *ghost.Post
	creates int
	updates int
	fetches int

	fetchErr  error
	writeErr  error
	onFetch   func()
	lastToken string
}

func (m *memoryPosts) FetchAggregatorPost(_ context.Context, _, token string) (*ghost.Post, error) {
	m.mu.Lock()
	m.fetches++
	m.lastToken = token
	post, err, hook := m.post, m.fetchErr, m.onFetch
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

func (m *memoryPosts) CreateAggregatorPost(_ context.Context, _, _ string, doc *lexical.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.creates++
	m.post = postWith("p1", "u1", doc.String())
	return "u1", nil
}

func (m *memoryPosts) UpdateAggregatorPost(_ context.Context, _ string, post *ghost.Post, _ string, doc *lexical.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.updates++
	m.post = postWith(post.ID, post.UUID, doc.String())
	return post.UUID, nil
}

func (m *memoryPosts) document(t *testing.T) *lexical.Document {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := lexical.Parse(m.post.Lexical)
	if err != nil {
		t.Fatalf("stored lexical: %v", err)
	}
	return doc
}

func postWith(id, uuid, lex string) *ghost.Post {
	raw, _ := json.Marshal(map[string]string{"id": id, "uuid": uuid, "lexical": lex})
	var p ghost.Post
	_ = json.Unmarshal(raw, &p)
	return &p
}

type stubPreviews struct {
	mu      sync.Mutex
	preview *lexical.Preview
	calls   int
}

func (s *stubPreviews) FetchPreview(context.Context, string, string, string) (*lexical.Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.preview, s.preview != nil
}

type captureNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (c *captureNotifier) Notify(_ context.Context, n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
	return nil
}

type captureRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
	codes    []domain.Code
}

func (c *captureRecorder) ObserveSubmission(_ Mode, o Outcome, code domain.Code, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
	c.codes = append(c.codes, code)
}

type fixture struct {
	svc      *Service
	perms    *allowAll
	posts    *memoryPosts
	previews *stubPreviews
	notes    *captureNotifier
	recorder *captureRecorder
}

func newFixture(settings domain.Settings) *fixture {
	f := &fixture{
		perms:    &allowAll{allowed: true},
		posts:    &memoryPosts{},
		previews: &stubPreviews{},
		notes:    &captureNotifier{},
		recorder: &captureRecorder{},
	}
	f.svc = NewService(Deps{
		Config:      staticConfig{settings: settings},
		Permissions: f.perms,
		Tokens:      stubTokens{},
		Posts:       f.posts,
		Previews:    f.previews,
		Notifier:    f.notes,
		Recorder:    f.recorder,
		Logger:      logger.NewNop(),
	})
	return f
}

var configured = domain.Settings{APIURL: testSite, APIKey: "id:abcdef"}

func TestSubmitCreatesThenAppends(t *testing.T) {
	f := newFixture(configured)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, Request{Link: "https://a.com"})
	if err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if !res.Created || res.UUID != "u1" {
		t.Errorf("first result = %+v, want created u1", res)
	}
	if res.EditorURL != testSite+"/p/u1/edit" {
		t.Errorf("EditorURL = %q", res.EditorURL)
	}
	if f.posts.document(t).Len() != 1 {
		t.Errorf("new post has %d nodes, want 1", f.posts.document(t).Len())
	}

	res, err = f.svc.Submit(ctx, Request{Link: "https://b.com", Note: "worth reading"})
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if res.Created {
		t.Error("second submission created a new post")
	}
	if f.posts.creates != 1 || f.posts.updates != 1 {
		t.Errorf("creates=%d updates=%d, want 1 and 1", f.posts.creates, f.posts.updates)
	}
	// link + spacer + link + note
	if n := f.posts.document(t).Len(); n != 4 {
		t.Errorf("post has %d nodes after append, want 4", n)
	}
	if f.perms.asked[0] != testSite+"/*" {
		t.Errorf("permission pattern = %q", f.perms.asked[0])
	}
	if f.posts.lastToken != "signed" {
		t.Errorf("token = %q", f.posts.lastToken)
	}
	if len(f.recorder.outcomes) != 2 || f.recorder.outcomes[0] != OutcomeCreated || f.recorder.outcomes[1] != OutcomeUpdated {
		t.Errorf("recorded outcomes = %v", f.recorder.outcomes)
	}
}

func TestSubmitUsesPreviewOnce(t *testing.T) {
	f := newFixture(configured)
	f.previews.preview = &lexical.Preview{Metadata: &lexical.PreviewMetadata{Title: "A"}}

	if _, err := f.svc.Submit(context.Background(), Request{Link: "https://a.com"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if f.previews.calls != 1 {
		t.Errorf("preview fetched %d times, want 1", f.previews.calls)
	}
	if got := f.posts.document(t).NodeType(0); got != "bookmark" {
		t.Errorf("node type = %q, want bookmark", got)
	}
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.Settings
		req      Request
		setup    func(f *fixture)
		wantCode domain.Code
		noFetch  bool
	}{
		{
			name:     "not configured",
			req:      Request{Link: "https://a.com"},
			wantCode: domain.CodeNotConfigured,
			noFetch:  true,
		},
		{
			name:     "invalid link",
			settings: configured,
			req:      Request{Link: "not a url"},
			wantCode: domain.CodeInvalidLink,
			noFetch:  true,
		},
		{
			name:     "no permission",
			settings: configured,
			req:      Request{Link: "https://a.com"},
			setup:    func(f *fixture) { f.perms.allowed = false },
			wantCode: domain.CodeNoPermission,
			noFetch:  true,
		},
		{
			name:     "fetch classified error passes through",
			settings: configured,
			req:      Request{Link: "https://a.com"},
			setup: func(f *fixture) {
				f.posts.fetchErr = domain.NewError(domain.CodeSiteOffline, nil)
			},
			wantCode: domain.CodeSiteOffline,
		},
		{
			name:     "post without lexical",
			settings: configured,
			req:      Request{Link: "https://a.com"},
			setup: func(f *fixture) {
				f.posts.post = postWith("p1", "u1", "")
			},
			wantCode: domain.CodeNoLexical,
		},
		{
			name:     "foreign write error",
			settings: configured,
			req:      Request{Link: "https://a.com"},
			setup:    func(f *fixture) { f.posts.writeErr = errors.New("boom") },
			wantCode: domain.CodeFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.settings)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.svc.Submit(context.Background(), tt.req)
			var de *domain.Error
			if !errors.As(err, &de) {
				t.Fatalf("Submit() error = %v, want *domain.Error", err)
			}
			if de.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", de.Code, tt.wantCode)
			}
			if tt.noFetch && f.posts.fetches != 0 {
				t.Errorf("made %d backend calls, want none", f.posts.fetches)
			}
			if f.posts.updates != 0 && domain.CodeOf(err) == domain.CodeNoLexical {
				t.Error("update attempted without lexical")
			}
		})
	}
}

func TestSubmitInvalidKey(t *testing.T) {
	f := newFixture(configured)
	f.svc.tokens = stubTokens{err: domain.NewError(domain.CodeInvalidAPIKey, nil)}

	_, err := f.svc.Submit(context.Background(), Request{Link: "https://a.com"})
	if domain.CodeOf(err) != domain.CodeInvalidAPIKey {
		t.Errorf("code = %s, want %s", domain.CodeOf(err), domain.CodeInvalidAPIKey)
	}
	if f.posts.fetches != 0 {
		t.Error("fetched posts without a token")
	}
}

func TestSubmitFromSharedText(t *testing.T) {
	f := newFixture(configured)

	_, err := f.svc.Submit(context.Background(), Request{Text: "Great read https://a.com/post?id=1 via a friend"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	doc := f.posts.document(t)
	if doc.Len() != 2 {
		t.Fatalf("post has %d nodes, want link and note", doc.Len())
	}
	var note struct {
		Children []struct {
			Text string `json:"text"`
		} `json:"children"`
	}
	_ = json.Unmarshal(doc.Root.Children[1], &note)
	if note.Children[0].Text != "Great read via a friend" {
		t.Errorf("note = %q", note.Children[0].Text)
	}
}

func TestSubmitBackgroundNotifies(t *testing.T) {
	f := newFixture(configured)
	ctx := context.Background()

	f.svc.SubmitBackground(ctx, Request{Link: "https://www.newyorker.com/magazine/x"})
	f.svc.SubmitBackground(ctx, Request{Link: "nope"})

	if len(f.notes.notes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(f.notes.notes))
	}
	ok, bad := f.notes.notes[0], f.notes.notes[1]
	if ok.Kind != domain.NotificationSuccess || ok.Title != "Bookmark added to Ghost!" {
		t.Errorf("success notification = %+v", ok)
	}
	if ok.Message != "Link saved from www.newyorker.com" {
		t.Errorf("success message = %q", ok.Message)
	}
	if ok.PostUUID != "u1" || ok.EditorURL != testSite+"/p/u1/edit" || ok.ID == "" {
		t.Errorf("success notification = %+v", ok)
	}
	if bad.Kind != domain.NotificationError || bad.Title != "Problem adding bookmark" || bad.Code != domain.CodeInvalidLink {
		t.Errorf("error notification = %+v", bad)
	}
	if bad.Message != domain.Message(domain.CodeInvalidLink) {
		t.Errorf("error message = %q", bad.Message)
	}
}

// Two submissions racing against an empty site both see no post and both
// create one. Nothing serializes submissions.
func TestConcurrentSubmissionsMayDuplicate(t *testing.T) {
	f := newFixture(configured)
	var barrier sync.WaitGroup
	barrier.Add(2)
	f.posts.onFetch = func() {
		barrier.Done()
		barrier.Wait()
	}

	var wg sync.WaitGroup
	for _, link := range []string{"https://a.com", "https://b.com"} {
		wg.Add(1)
		go func(link string) {
			defer wg.Done()
			if _, err := f.svc.Submit(context.Background(), Request{Link: link}); err != nil {
				t.Errorf("Submit(%s) error = %v", link, err)
			}
		}(link)
	}
	wg.Wait()

	if f.posts.creates != 2 {
		t.Errorf("creates = %d, want 2", f.posts.creates)
	}
}

func TestEditorURL(t *testing.T) {
	if got := EditorURL("https://blog.example.com/", "abc"); got != "https://blog.example.com/p/abc/edit" {
		t.Errorf("EditorURL() = %q", got)
	}
}
