package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/analytics"
	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/parser"
	"famspend/internal/recorder"
	"famspend/internal/store"
	"famspend/internal/store/memory"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

// newTestBot skips the Telegram API client; turns never touch it.
func newTestBot(t *testing.T) (*Bot, *memory.Store) {
	t.Helper()
	clock := func() time.Time { return now }
	st := memory.NewWithClock(clock)
	rec := recorder.New(parser.New(clock), st, nil, nil)
	engine := chat.NewLocalEngine(rec, analytics.NewResponder(nil, clock), st, nil)
	sessions := chat.NewManager(engine, st, chat.ManagerConfig{TTL: time.Hour, MaxSessions: 10, Now: clock}, nil)
	return &Bot{sessions: sessions, money: core.DefaultFormatter(), logger: log.Discard()}, st
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestBot_ReplyRecordsPerMember(t *testing.T) {
	b, st := newTestBot(t)
	ctx := context.Background()

	alice := Sender{ChatID: 100, UserID: 1, Name: "Alice"}
	bob := Sender{ChatID: 100, UserID: 2, Name: "Bob"}

	assert.Equal(t, "Logged ₹500 under Food", b.Reply(ctx, alice, "500 for food"))
	assert.Equal(t, "Logged ₹120 under Transport", b.Reply(ctx, bob, "120 for uber"))
	require.Equal(t, 2, st.Len())

	expenses, err := st.ListExpenses(ctx, store.ScopeFor(alice.identity()))
	require.NoError(t, err)
	require.Len(t, expenses, 2, "one Telegram chat is one family")

	owners := map[string]string{}
	for _, e := range expenses {
		owners[e.OwnerName] = e.OwnerUserID
	}
	assert.Equal(t, "tg:1", owners["Alice"])
	assert.Equal(t, "tg:2", owners["Bob"])
}

func TestBot_StatsText(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	alice := Sender{ChatID: 7, UserID: 1, Name: "Alice"}

	b.Reply(ctx, alice, "300 for groceries")
	b.Reply(ctx, alice, "200 for taxi")

	assert.Equal(t, "Total: ₹500\nToday: ₹500\nEntries: 2", b.StatsText(ctx, alice))
}

func TestBot_ReplyBlankIsSilent(t *testing.T) {
	b, _ := newTestBot(t)
	assert.Empty(t, b.Reply(context.Background(), Sender{ChatID: 1, UserID: 1}, "   "))
}

func TestSender_Keys(t *testing.T) {
	s := Sender{ChatID: -42, UserID: 9, Name: "Ravi"}
	assert.Equal(t, "tg:-42:9", s.sessionKey())
	assert.Equal(t, core.Identity{UserID: "tg:9", UserName: "Ravi", FamilyID: "tg-chat:-42"}, s.identity())
}

func TestChatForFamily(t *testing.T) {
	id, ok := chatForFamily("tg-chat:-1001")
	assert.True(t, ok)
	assert.Equal(t, int64(-1001), id)

	_, ok = chatForFamily("fam-1")
	assert.False(t, ok)

	_, ok = chatForFamily("tg-chat:abc")
	assert.False(t, ok)
}

func TestBot_NotifyIgnoresOtherFamilies(t *testing.T) {
	b, _ := newTestBot(t)
	assert.NoError(t, b.Notify(context.Background(), "fam-1", "hello"))
}
