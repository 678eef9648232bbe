package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pscheid92/ballotbot/internal/domain"
)

const testBot = "ballotbot"

var errForge = errors.New("forge unavailable")

// --- fakeForge: an in-memory repository ---

type fakeForge struct {
	mu sync.Mutex

	proposals map[int]domain.Proposal
	comments  map[int][]domain.Comment
	endorsers []string
	nextID    int64

	// mergeability answers are consumed in order; the last one repeats.
	mergeability map[int][]domain.Mergeability

	endorsersErr error
	commentsErr  map[int]error
	createErr    error
	closeErrs    int // number of CloseProposal calls that fail
	mergeErr     error

	closed            []int
	merged            []int
	mergeabilityCalls int
	listCommentCalls  int
}

func newFakeForge() *fakeForge {
	return &fakeForge{
		proposals:    make(map[int]domain.Proposal),
		comments:     make(map[int][]domain.Comment),
		mergeability: make(map[int][]domain.Mergeability),
		commentsErr:  make(map[int]error),
		nextID:       1000,
	}
}

func (f *fakeForge) addProposal(p domain.Proposal, comments ...domain.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.Open = true
	f.proposals[p.Number] = p
	f.comments[p.Number] = append(f.comments[p.Number], comments...)
}

func (f *fakeForge) ListOpenProposals(_ context.Context, page, perPage int) ([]domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var open []domain.Proposal
	for _, p := range f.proposals {
		if p.Open {
			open = append(open, p)
		}
	}
	return paginate(open, page, perPage), nil
}

func (f *fakeForge) ListComments(_ context.Context, number, page, perPage int) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCommentCalls++
	if err := f.commentsErr[number]; err != nil {
		return nil, err
	}
	return paginate(f.comments[number], page, perPage), nil
}

func (f *fakeForge) ListEndorsers(_ context.Context, page, perPage int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endorsersErr != nil {
		return nil, f.endorsersErr
	}
	return paginate(f.endorsers, page, perPage), nil
}

func (f *fakeForge) GetProposal(_ context.Context, number int) (domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proposals[number]
	if !ok {
		return domain.Proposal{}, domain.ErrUnknownProposal
	}
	return p, nil
}

func (f *fakeForge) CreateComment(_ context.Context, number int, body string) (domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.Comment{}, f.createErr
	}
	f.nextID++
	c := domain.Comment{ID: f.nextID, Author: testBot, Body: body}
	f.comments[number] = append(f.comments[number], c)
	return c, nil
}

func (f *fakeForge) CloseProposal(_ context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErrs > 0 {
		f.closeErrs--
		return errForge
	}
	p := f.proposals[number]
	p.Open = false
	f.proposals[number] = p
	f.closed = append(f.closed, number)
	return nil
}

func (f *fakeForge) Mergeability(_ context.Context, number int) (domain.Mergeability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeabilityCalls++
	answers := f.mergeability[number]
	if len(answers) == 0 {
		return domain.MergeabilityClean, nil
	}
	m := answers[0]
	if len(answers) > 1 {
		f.mergeability[number] = answers[1:]
	}
	return m, nil
}

func (f *fakeForge) MergeProposal(_ context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mergeErr != nil {
		return f.mergeErr
	}
	p := f.proposals[number]
	p.Open = false
	f.proposals[number] = p
	f.merged = append(f.merged, number)
	return nil
}

// botComments returns the bot's comments on a proposal.
func (f *fakeForge) botComments(number int) []domain.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Comment
	for _, c := range f.comments[number] {
		if c.Author == testBot {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeForge) getClosed() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.closed...)
}

func (f *fakeForge) getMerged() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.merged...)
}

func (f *fakeForge) getMergeabilityCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mergeabilityCalls
}

func paginate[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := min(start+perPage, len(items))
	return items[start:end]
}

// --- recordingAnnouncer ---

type recordingAnnouncer struct {
	mu    sync.Mutex
	items []domain.Announcement
	err   error
}

func (r *recordingAnnouncer) Announce(_ context.Context, a domain.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, a)
	return r.err
}

func (r *recordingAnnouncer) kinds() []domain.AnnouncementKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AnnouncementKind, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, a.Kind)
	}
	return out
}

// --- stubScorer ---

type stubScorer int

func (s stubScorer) Score(string) int { return int(s) }

// --- fakeLeader ---

type fakeLeader struct {
	mu       sync.Mutex
	acquire  bool
	renewErr error
	released bool
}

func (l *fakeLeader) TryAcquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquire, nil
}

func (l *fakeLeader) Renew(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.renewErr
}

func (l *fakeLeader) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	return nil
}

func (l *fakeLeader) wasReleased() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
