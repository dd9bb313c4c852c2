package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type fakeAPI struct {
	role tele.MemberStatus
	err  error
}

func (f *fakeAPI) ChatMemberOf(_, _ tele.Recipient) (*tele.ChatMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tele.ChatMember{Role: f.role}, nil
}

func TestIsMemberRoles(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		role tele.MemberStatus
		want bool
	}{
		{tele.Member, true},
		{tele.Administrator, true},
		{tele.Creator, true},
		{tele.Left, false},
		{tele.Kicked, false},
		{tele.Restricted, false},
	}
	for _, tt := range tests {
		c := NewChecker(&fakeAPI{role: tt.role}, -100123)
		assert.Equal(t, tt.want, c.IsMember(ctx, 7), "role %s", tt.role)
	}
}

func TestIsMemberDegradesOnError(t *testing.T) {
	c := NewChecker(&fakeAPI{err: errors.New("bot is not a member of the channel chat")}, -100123)
	assert.False(t, c.IsMember(context.Background(), 7))
}
