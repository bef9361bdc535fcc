package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
	"github.com/rcliao/misoul/internal/repository"
	"github.com/rcliao/misoul/internal/store"
)

func newPair(t *testing.T) (*Client, *jsonrpc2.Conn) {
	t.Helper()
	ctx := context.Background()

	backend, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "rpc.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	serverSide, clientSide := net.Pipe()
	srvConn := NewServer(backend, nil).ServeConn(ctx, serverSide)
	client := NewClient(ctx, clientSide, 2*time.Second, nil)
	t.Cleanup(func() {
		client.Close()
		srvConn.Close()
	})
	return client, srvConn
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, _ := newPair(t)

	saved, err := client.SaveMemory(ctx, "ana", model.NewText("so happy at the lake"), model.KindText)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, model.MoodHappy, saved.Mood)

	img, err := model.NewMedia(model.KindImage, []byte{0xff, 0xd8, 0xff}, "sunset")
	require.NoError(t, err)
	_, err = client.SaveMemory(ctx, "ana", img, model.KindImage)
	require.NoError(t, err)

	got, err := client.GetMemoriesByUser(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, saved.ID, got[0].ID)
	media, ok := got[1].Content.(model.Media)
	require.True(t, ok)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, media.Data())
	assert.Equal(t, "sunset", media.Description())

	require.NoError(t, client.EditMemory(ctx, got[1].ID, "sunset at the pier", model.KindImage))
	require.NoError(t, client.DeleteMemory(ctx, saved.ID))

	got, err = client.GetMemoriesByUser(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sunset at the pier", got[0].Description())
}

func TestEmptyOwnerListsNothing(t *testing.T) {
	client, _ := newPair(t)
	got, err := client.GetMemoriesByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStoreRejectionIsDomainError(t *testing.T) {
	client, _ := newPair(t)

	err := client.DeleteMemory(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Domain))
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, "memory not found: missing", e.Message)
}

func TestUnknownMethod(t *testing.T) {
	client, _ := newPair(t)

	var out json.RawMessage
	err := client.call(context.Background(), "forgetEverything", ListParams{Owner: "ana"}, &out)
	require.Error(t, err)
	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)
}

func TestCallAfterCloseFails(t *testing.T) {
	client, _ := newPair(t)
	require.NoError(t, client.Close())

	_, err := client.GetMemoriesByUser(context.Background(), "ana")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTransportFailureIsRemoteInRepository(t *testing.T) {
	ctx := context.Background()
	client, srvConn := newPair(t)

	repo := repository.New(client, nil)
	require.NoError(t, repo.SwitchOwner(ctx, "ana"))

	created, err := repo.Create(ctx, form.New().WithKind(model.KindText).WithText("a calm evening"))
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, []string{repo.Memories()[0].ID})

	srvConn.Close()
	<-srvConn.DisconnectNotify()

	_, err = repo.Create(ctx, form.New().WithKind(model.KindText).WithText("lost in transit"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Remote))
	assert.Equal(t, "Could not reach the memory store. Please try again.", repo.Status())
	assert.Len(t, repo.Memories(), 1)
}

func TestBreakerOpensAfterRepeatedTransportFailures(t *testing.T) {
	ctx := context.Background()
	client, srvConn := newPair(t)

	srvConn.Close()
	<-srvConn.DisconnectNotify()

	for i := 0; i < tripAfter; i++ {
		_, err := client.GetMemoriesByUser(ctx, "ana")
		require.Error(t, err)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState), "call %d should reach the transport", i)
	}
	_, err := client.GetMemoriesByUser(ctx, "ana")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestErrorResponsesDoNotTripBreaker(t *testing.T) {
	client, _ := newPair(t)

	var out json.RawMessage
	for i := 0; i < tripAfter+1; i++ {
		err := client.call(context.Background(), "nope", ListParams{}, &out)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}
	_, err := client.GetMemoriesByUser(context.Background(), "ana")
	assert.NoError(t, err)
}
