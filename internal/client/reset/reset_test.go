package reset

import (
	"context"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	err     error
	block   chan struct{}
	entered chan struct{}

	calls     int
	lastToken string
	lastPass  string
}

func (f *fakeSubmitter) ResetPassword(ctx context.Context, token, newPassword string) (*client.MessageResponse, error) {
	f.calls++
	f.lastToken, f.lastPass = token, newPassword
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &client.MessageResponse{Message: "Password updated"}, nil
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		want     Requirements
	}{
		{"empty", "", "", Requirements{}},
		{"all met", "Abcdefg1", "Abcdefg1", Requirements{true, true, true, true, true}},
		{"short", "Ab1", "Ab1", Requirements{false, true, true, true, true}},
		{"no upper", "abcdefg1", "abcdefg1", Requirements{true, false, true, true, true}},
		{"no lower", "ABCDEFG1", "ABCDEFG1", Requirements{true, true, false, true, true}},
		{"no digit", "Abcdefgh", "Abcdefgh", Requirements{true, true, true, false, true}},
		{"mismatch", "Abcdefg1", "Abcdefg2", Requirements{true, true, true, true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.password, tt.confirm)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == Requirements{true, true, true, true, true}, got.AllMet())
		})
	}
}

func TestRequirements_Unmet(t *testing.T) {
	assert.Empty(t, Evaluate("Abcdefg1", "Abcdefg1").Unmet())
	assert.Equal(t, []string{"one number", "passwords must match"}, Evaluate("Abcdefgh", "x").Unmet())
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"demo@example.com", " a.b@c.io "} {
		assert.NoError(t, ValidateEmail(ok), ok)
	}
	for _, bad := range []string{"", "demo", "demo@", "demo@example", "Demo <demo@example.com>"} {
		assert.ErrorIs(t, ValidateEmail(bad), ErrInvalidEmail, bad)
	}
}

func TestFlow_MissingTokenBlocksSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	f := New("", sub)
	f.SetPassword("Abcdefg1")
	f.SetConfirmation("Abcdefg1")

	assert.False(t, f.CanSubmit())
	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrMissingToken)
	assert.Zero(t, sub.calls)
	assert.Equal(t, ErrMissingToken.Error(), f.Err())
}

func TestFlow_RequirementsRecomputedOnEveryChange(t *testing.T) {
	f := New("tok", &fakeSubmitter{})

	r := f.SetPassword("Abcdefg1")
	assert.False(t, r.Match)
	assert.False(t, f.CanSubmit())

	r = f.SetConfirmation("Abcdefg1")
	assert.True(t, r.AllMet())
	assert.True(t, f.CanSubmit())

	r = f.SetPassword("Abcdefg12")
	assert.False(t, r.Match)
	assert.Equal(t, r, f.Requirements())

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrRequirementsNotMet)
}

func TestFlow_OfflineBlocksSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	f := New("tok", sub)
	f.SetPassword("Abcdefg1")
	f.SetConfirmation("Abcdefg1")
	f.SetOnline(false)

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, sub.calls)

	f.SetOnline(true)
	assert.True(t, f.CanSubmit())
}

func TestFlow_SuccessRoutesToLogin(t *testing.T) {
	sub := &fakeSubmitter{}
	f := New("tok", sub)
	f.SetPassword("Abcdefg1")
	f.SetConfirmation("Abcdefg1")

	route, err := f.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.RouteLogin, route)
	assert.Equal(t, PhaseSubmitted, f.Phase())
	assert.Equal(t, "tok", sub.lastToken)
	assert.Equal(t, "Abcdefg1", sub.lastPass)

	_, err = f.Submit(context.Background())
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, sub.calls)
}

func TestFlow_BackendRejectionReturnsToEditing(t *testing.T) {
	sub := &fakeSubmitter{err: &client.Error{StatusCode: http.StatusBadRequest, Message: "Reset link expired"}}
	f := New("tok", sub)
	f.SetPassword("Abcdefg1")
	f.SetConfirmation("Abcdefg1")

	route, err := f.Submit(context.Background())

	require.Error(t, err)
	assert.Empty(t, route)
	assert.Equal(t, PhaseEditing, f.Phase())
	assert.Equal(t, "Reset link expired", f.Err())
	assert.True(t, f.CanSubmit())
}

func TestFlow_SecondSubmitWhileInFlight(t *testing.T) {
	sub := &fakeSubmitter{block: make(chan struct{}), entered: make(chan struct{})}
	f := New("tok", sub)
	f.SetPassword("Abcdefg1")
	f.SetConfirmation("Abcdefg1")

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-sub.entered

	assert.Equal(t, PhaseValidating, f.Phase())
	assert.False(t, f.CanSubmit())
	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrInFlight)

	close(sub.block)
	require.NoError(t, <-done)
}
