package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/sse"
)

// store is an in-memory backing for the read-mostly repositories.
type store struct {
	mu            sync.Mutex
	users         map[string]*model.User
	pairs         []*model.Pair
	prompts       []model.Prompt
	answers       []model.Answer
	notifications []model.Notification
	clock         time.Time
	seq           int
}

func newStore() *store {
	return &store{
		users: make(map[string]*model.User),
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) addUser(id, name string) *model.User {
	u := &model.User{ID: id, TelegramID: int64(len(s.users) + 1000), DisplayName: name}
	s.users[id] = u
	return u
}

func (s *store) addPair(u1, u2 string) *model.Pair {
	a, b := model.CanonicalMembers(u1, u2)
	p := &model.Pair{ID: s.nextID("pair"), UserAID: a, UserBID: b}
	s.pairs = append(s.pairs, p)
	return p
}

func (s *store) addPrompt(p model.Prompt) model.Prompt {
	if p.ID == 0 {
		p.ID = int64(len(s.prompts) + 1)
	}
	if p.Kind == "" {
		p.Kind = model.PromptKindDaily
	}
	if p.Variant == "" {
		p.Variant = model.PromptVariantSingle
	}
	if p.AnswerType == "" {
		p.AnswerType = model.AnswerTypeText
	}
	s.prompts = append(s.prompts, p)
	return p
}

type storeUsers struct{ *store }

func (r storeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r storeUsers) FindByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (r storeUsers) Upsert(_ context.Context, params model.CreateUserParams) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID == params.TelegramID {
			if params.Username != nil {
				u.Username = params.Username
			}
			return u, nil
		}
	}
	u := &model.User{
		ID:          r.nextID("user"),
		TelegramID:  params.TelegramID,
		DisplayName: params.DisplayName,
		Username:    params.Username,
	}
	r.users[u.ID] = u
	return u, nil
}

func (r storeUsers) UpdateDisplayName(_ context.Context, id, displayName string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u == nil {
		return nil, nil
	}
	u.DisplayName = displayName
	return u, nil
}

type storePairs struct{ *store }

func (r storePairs) FindByID(_ context.Context, id string) (*model.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r storePairs) FindByUserID(_ context.Context, userID string) (*model.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.Has(userID) {
			return p, nil
		}
	}
	return nil, nil
}

type storePrompts struct{ *store }

func (r storePrompts) FindByID(_ context.Context, id int64) (*model.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.prompts {
		if r.prompts[i].ID == id {
			p := r.prompts[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (r storePrompts) FindAll(_ context.Context, kind model.PromptKind) ([]model.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Prompt{}
	for _, p := range r.prompts {
		if kind == "" || p.Kind == kind {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r storePrompts) Upsert(_ context.Context, params model.UpsertPromptParams) (*model.Prompt, error) {
	return nil, fmt.Errorf("not supported")
}

type storeAnswers struct{ *store }

func (r storeAnswers) Create(_ context.Context, params model.CreateAnswerParams) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.UserID == params.UserID && a.PromptID == params.PromptID && a.SubKind == params.SubKind {
			return nil, repository.ErrDuplicateAnswer
		}
	}
	r.clock = r.clock.Add(time.Minute)
	a := model.Answer{
		ID:        r.nextID("answer"),
		PairID:    params.PairID,
		UserID:    params.UserID,
		PromptID:  params.PromptID,
		SubKind:   params.SubKind,
		Value:     params.Value,
		Choice:    params.Choice,
		CreatedAt: r.clock,
	}
	r.answers = append(r.answers, a)
	return &a, nil
}

func (r storeAnswers) FindByUser(_ context.Context, userID string) ([]model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Answer
	for _, a := range r.answers {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r storeAnswers) FindByPrompt(_ context.Context, promptID int64, userIDs []string) ([]model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Answer
	for _, a := range r.answers {
		if a.PromptID != promptID {
			continue
		}
		for _, id := range userIDs {
			if a.UserID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

type storeNotifications struct{ *store }

func (r storeNotifications) Create(_ context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := model.Notification{
		ID:          r.nextID("notification"),
		Kind:        params.Kind,
		SenderID:    params.SenderID,
		RecipientID: params.RecipientID,
		PairID:      params.PairID,
		PromptID:    params.PromptID,
		SentAt:      r.clock,
	}
	r.notifications = append(r.notifications, n)
	return &n, nil
}

func (r storeNotifications) ListByPair(_ context.Context, pairID string, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if r.notifications[i].PairID == pairID {
			out = append(out, r.notifications[i])
		}
	}
	return out, nil
}

func (r storeNotifications) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// Mock repositories

type mockInvitationRepo struct {
	mock.Mock
}

func (m *mockInvitationRepo) FindByCode(ctx context.Context, code string) (*model.Invitation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *mockInvitationRepo) FindActiveByIssuer(ctx context.Context, issuerID string, now time.Time) (*model.Invitation, error) {
	args := m.Called(ctx, issuerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *mockInvitationRepo) ListByIssuer(ctx context.Context, issuerID string, limit int) ([]model.Invitation, error) {
	args := m.Called(ctx, issuerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *mockInvitationRepo) Create(ctx context.Context, params model.CreateInvitationParams) (*model.Invitation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *mockInvitationRepo) Consume(ctx context.Context, code, inviteeID string, now time.Time) (*model.Pair, error) {
	args := m.Called(ctx, code, inviteeID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Pair), args.Error(1)
}

func (m *mockInvitationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPartner(ctx context.Context, notice ReminderNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

type mockThrottle struct {
	mock.Mock
}

func (m *mockThrottle) Acquire(ctx context.Context, userID string, kind model.PromptKind, cooldown time.Duration) (ThrottleDecision, error) {
	args := m.Called(ctx, userID, kind, cooldown)
	return args.Get(0).(ThrottleDecision), args.Error(1)
}

func (m *mockThrottle) Release(ctx context.Context, userID string, kind model.PromptKind, d ThrottleDecision) error {
	args := m.Called(ctx, userID, kind, d)
	return args.Error(0)
}

// recordingPublisher keeps every published event per user.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]sse.Event
	err    error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]sse.Event)}
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, event sse.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events[userID] = append(p.events[userID], event)
	return nil
}

func (p *recordingPublisher) typesFor(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events[userID] {
		out = append(out, e.Type)
	}
	return out
}
