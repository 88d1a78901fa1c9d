package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/analytics"
	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/parser"
	"famspend/internal/recorder"
	"famspend/internal/store/memory"
)

func newREPLSession(t *testing.T) (*chat.Session, *memory.Store) {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	st := memory.NewWithClock(clock)
	rec := recorder.New(parser.New(clock), st, nil, nil)
	engine := chat.NewLocalEngine(rec, analytics.NewResponder(nil, clock), st, nil)
	session := chat.NewSession(chat.SessionConfig{
		ID:       "repl",
		Identity: core.Identity{UserID: "u1", UserName: "Asha"},
		Engine:   engine,
		Lister:   st,
		Now:      clock,
	})
	return session, st
}

func TestREPL_RecordsAndQuits(t *testing.T) {
	session, st := newREPLSession(t)
	in := strings.NewReader("500 for food\n\n/stats\n/quit\n120 for taxi\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), in, &out, session, core.DefaultFormatter()))

	assert.Equal(t, 1, st.Len(), "input after /quit is not read")
	assert.Contains(t, out.String(), "Logged ₹500 under Food")
	assert.Contains(t, out.String(), "Total: ₹500 | Today: ₹500 | Entries: 1")
}

func TestREPL_EOFEnds(t *testing.T) {
	session, _ := newREPLSession(t)
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), strings.NewReader("hello"), &out, session, core.DefaultFormatter()))
	assert.True(t, strings.HasPrefix(out.String(), chat.WelcomeMessage))
}

func TestREPL_ResetClearsTranscript(t *testing.T) {
	session, _ := newREPLSession(t)
	var out bytes.Buffer

	in := strings.NewReader("300 for groceries\n/reset\n")
	require.NoError(t, repl(context.Background(), in, &out, session, core.DefaultFormatter()))

	transcript := session.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, chat.WelcomeMessage, transcript[0].Text)
	assert.Equal(t, 0, session.Stats().EntryCount)
}
