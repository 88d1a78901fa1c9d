package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/amqp"
	"famspend/internal/core"
	"famspend/internal/store"
	"famspend/internal/store/memory"
)

type recordingPublisher struct {
	published []*amqp.ExpenseRecordedMessage
	err       error
	closed    bool
}

func (p *recordingPublisher) PublishExpenseRecorded(_ context.Context, msg *amqp.ExpenseRecordedMessage) error {
	p.published = append(p.published, msg)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

var owner = core.Identity{UserID: "u1", UserName: "Asha", FamilyID: "f1"}

func newExpense() store.NewExpense {
	return store.NewExpense{Owner: owner, Description: "500 for food", Amount: core.Money{Minor: 50000}, Category: "Food"}
}

func TestExpenseService_CreatePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)

	e, err := svc.Create(context.Background(), newExpense())
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	msg := pub.published[0]
	assert.Equal(t, e.ID, msg.ExpenseID)
	assert.Equal(t, "Asha", msg.UserName)
	assert.Equal(t, int64(50000), msg.AmountMinor)
}

func TestExpenseService_PublishFailureKeepsExpense(t *testing.T) {
	st := memory.New()
	svc := NewExpenseService(st, &recordingPublisher{err: errors.New("broker down")}, nil)

	_, err := svc.Create(context.Background(), newExpense())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestExpenseService_InvalidExpenseIsNotPublished(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)

	in := newExpense()
	in.Amount = core.Money{Minor: -1}
	_, err := svc.Create(context.Background(), in)

	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, pub.published)
}

func TestExpenseService_WithoutPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, nil)

	_, err := svc.Create(context.Background(), newExpense())
	require.NoError(t, err)

	list, err := svc.ListExpenses(context.Background(), store.ScopeFor(owner))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestExpenseService_Close(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

// totalingStore answers FamilyTotal itself and refuses to list.
type totalingStore struct {
	*memory.Store
	asked string
}

func (s *totalingStore) FamilyTotal(_ context.Context, familyID string) (core.Money, error) {
	s.asked = familyID
	return core.Money{Minor: 777}, nil
}

func (s *totalingStore) ListExpenses(context.Context, store.Scope) ([]core.Expense, error) {
	return nil, errors.New("listing not expected")
}

func TestExpenseService_FamilyTotal(t *testing.T) {
	ctx := context.Background()

	st := memory.New()
	svc := NewExpenseService(st, nil, nil)
	_, err := svc.Create(ctx, newExpense())
	require.NoError(t, err)
	total, err := svc.FamilyTotal(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), total.Minor, "falls back to summing the listed collection")

	ts := &totalingStore{Store: memory.New()}
	total, err = NewExpenseService(ts, nil, nil).FamilyTotal(ctx, "f9")
	require.NoError(t, err)
	assert.Equal(t, int64(777), total.Minor)
	assert.Equal(t, "f9", ts.asked)
}
