package gameserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/gameserver"
)

type stubArena struct {
	ledger *betting.Ledger
}

func (s *stubArena) Snapshot() arena.Snapshot {
	return arena.Snapshot{Arena: "main", Phase: arena.PhaseBetting, Countdown: 77, Pools: arena.Pools{Total: s.ledger.TotalPool()}}
}

func (s *stubArena) PlaceBet(team combat.Side, amount float64, token string) (betting.Bet, error) {
	return s.ledger.Place(team, amount, token)
}

// testGRPCServer starts an in-process gRPC server and returns a connected client.
func testGRPCServer(t *testing.T, open bool) (*gameserver.Client, *arena.Broadcaster, *stubArena) {
	t.Helper()
	ledger := betting.NewLedger(nil)
	if open {
		ledger.Open()
	}
	stub := &stubArena{ledger: ledger}
	events := arena.NewBroadcaster()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	grpcServer := grpc.NewServer()
	gameserver.RegisterArenaService(grpcServer, gameserver.NewArenaServer(stub, events, zaptest.NewLogger(t)))
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return gameserver.NewClient(conn), events, stub
}

func TestArenaServer_Snapshot(t *testing.T) {
	client, _, _ := testGRPCServer(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BETTING", snap.Fields["phase"].GetStringValue())
	assert.Equal(t, 77.0, snap.Fields["countdown"].GetNumberValue())
}

func TestArenaServer_PlaceBet(t *testing.T) {
	client, _, stub := testGRPCServer(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bet, err := client.PlaceBet(ctx, "b", 5, "SOL")
	require.NoError(t, err)
	assert.Equal(t, "B", bet.Fields["team"].GetStringValue())
	assert.Equal(t, 5.0, stub.ledger.Pool(combat.SideB))

	_, err = client.PlaceBet(ctx, "Q", 5, "SOL")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.PlaceBet(ctx, "A", -1, "SOL")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestArenaServer_PlaceBetClosed(t *testing.T) {
	client, _, stub := testGRPCServer(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.PlaceBet(ctx, "A", 5, "SOL")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Zero(t, stub.ledger.TotalPool())
}

func TestArenaServer_Watch(t *testing.T) {
	client, events, _ := testGRPCServer(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return events.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	events.Publish(arena.Event{Kind: arena.EventLogLine, Line: "TEAM A VICTORIOUS!"})
	msg, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "log_line", msg.Fields["type"].GetStringValue())
	assert.Equal(t, "TEAM A VICTORIOUS!", msg.Fields["line"].GetStringValue())

	cancel()
	require.Eventually(t, func() bool { return events.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)
}
