package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/telegram"
)

type fakeValidator map[string]*telegram.InitData

func (f fakeValidator) Validate(raw string) (*telegram.InitData, error) {
	if data, ok := f[raw]; ok {
		return data, nil
	}
	return nil, telegram.ErrBadHash
}

func newTestIdentity(st *store, v CredentialValidator, repo *mockInvitationRepo) *IdentityService {
	invitations := newTestInvitationService(st, repo, nil)
	pairs := NewPairService(storePairs{st}, storeUsers{st})
	return NewIdentityService(v, storeUsers{st}, invitations, pairs)
}

func TestIdentityService_ResolveCaller(t *testing.T) {
	ctx := context.Background()
	v := fakeValidator{
		"good": {User: telegram.WebAppUser{ID: 77, FirstName: "Ada", LastName: "Lovelace", Username: "ada"}},
	}

	t.Run("creates the user on first sight and reuses it after", func(t *testing.T) {
		st := newStore()
		svc := newTestIdentity(st, v, new(mockInvitationRepo))

		first, err := svc.ResolveCaller(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", first.User.DisplayName)
		require.NotNil(t, first.User.Username)
		assert.Equal(t, "ada", *first.User.Username)

		second, err := svc.ResolveCaller(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, second.User.ID)
		assert.Len(t, st.users, 1)
	})

	t.Run("bad credential is unauthenticated", func(t *testing.T) {
		st := newStore()
		svc := newTestIdentity(st, v, new(mockInvitationRepo))

		_, err := svc.ResolveCaller(ctx, "forged")

		assert.Equal(t, apperrors.ErrCodeUnauthenticated, apperrors.GetCode(err))
		assert.Empty(t, st.users)
	})
}

func TestIdentityService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("replays the start parameter invite", func(t *testing.T) {
		st := newStore()
		bob := st.addUser("bob", "Bob")
		repo := new(mockInvitationRepo)
		svc := newTestIdentity(st, fakeValidator{}, repo)

		pair := &model.Pair{ID: "pair-1", UserAID: "alice", UserBID: "bob"}
		repo.On("Consume", mock.Anything, "ABCD-EFGH-JKLM-NPQR", "bob", mock.Anything).Return(pair, nil)

		result, err := svc.Register(ctx, &Caller{
			User:     bob,
			InitData: &telegram.InitData{StartParam: "invite_ABCD-EFGH-JKLM-NPQR"},
		}, "")

		require.NoError(t, err)
		assert.Equal(t, pair, result.Pair)
		assert.Nil(t, result.InviteError)
	})

	t.Run("a rejected invite does not fail registration", func(t *testing.T) {
		st := newStore()
		bob := st.addUser("bob", "Bob")
		repo := new(mockInvitationRepo)
		svc := newTestIdentity(st, fakeValidator{}, repo)

		repo.On("Consume", mock.Anything, "USED-USED-USED-USED", "bob", mock.Anything).
			Return(nil, repository.ErrInvitationUsed)

		result, err := svc.Register(ctx, &Caller{User: bob}, "used-used-used-used")

		require.NoError(t, err)
		require.NotNil(t, result.InviteError)
		assert.Equal(t, apperrors.ErrCodeAlreadyUsed, result.InviteError.Code)
		assert.Nil(t, result.Pair)
	})

	t.Run("without an invite returns the existing pair", func(t *testing.T) {
		st := newStore()
		bob := st.addUser("bob", "Bob")
		existing := st.addPair("alice", "bob")
		repo := new(mockInvitationRepo)
		svc := newTestIdentity(st, fakeValidator{}, repo)

		result, err := svc.Register(ctx, &Caller{User: bob, InitData: &telegram.InitData{AuthDate: time.Now()}}, "")

		require.NoError(t, err)
		assert.Equal(t, existing.ID, result.Pair.ID)
		repo.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestIdentityService_UpdateDisplayName(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	st.addUser("bob", "Bob")
	svc := newTestIdentity(st, fakeValidator{}, new(mockInvitationRepo))

	t.Run("trims and truncates", func(t *testing.T) {
		user, err := svc.UpdateDisplayName(ctx, "bob", "  "+strings.Repeat("\u00e9", maxDisplayNameLen+5)+"  ")
		require.NoError(t, err)
		assert.Equal(t, maxDisplayNameLen, len([]rune(user.DisplayName)))
	})

	t.Run("blank is rejected", func(t *testing.T) {
		_, err := svc.UpdateDisplayName(ctx, "bob", "   ")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateDisplayName(ctx, "ghost", "Ghost")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}
