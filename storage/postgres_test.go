package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pablojokanovich/mafiaonline/domain"
	"github.com/pablojokanovich/mafiaonline/migrations"
	"github.com/pablojokanovich/mafiaonline/storage"
)

var repo *storage.PostgresRepo

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	repo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	repo.Close()
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresRepo_Rooms(t *testing.T) {
	ctx := context.Background()

	t.Run("GetRoom_NotFound", func(t *testing.T) {
		_, err := repo.GetRoom(ctx, "NOPE")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("SaveRoom_Insert", func(t *testing.T) {
		err := repo.SaveRoom(ctx, domain.Room{ID: "AAAA", Phase: domain.PhaseLobby})
		require.NoError(t, err)

		room, err := repo.GetRoom(ctx, "AAAA")
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseLobby, room.Phase)
		assert.True(t, room.PhaseEnds.IsZero())
		assert.Empty(t, room.Winner)
	})

	t.Run("SaveRoom_Upsert", func(t *testing.T) {
		ends := time.Now().Add(30 * time.Second).UTC().Truncate(time.Millisecond)
		err := repo.SaveRoom(ctx, domain.Room{
			ID: "AAAA", Phase: domain.PhaseNight, PhaseEnds: ends,
		})
		require.NoError(t, err)

		room, err := repo.GetRoom(ctx, "AAAA")
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseNight, room.Phase)
		assert.WithinDuration(t, ends, room.PhaseEnds, time.Millisecond)
	})

	t.Run("SaveRoom_GameOver", func(t *testing.T) {
		err := repo.SaveRoom(ctx, domain.Room{
			ID: "AAAA", Phase: domain.PhaseGameOver,
			Winner: domain.FactionMafia, Narrative: "Vera was killed in the night.",
		})
		require.NoError(t, err)

		room, err := repo.GetRoom(ctx, "AAAA")
		require.NoError(t, err)
		assert.Equal(t, domain.FactionMafia, room.Winner)
		assert.Equal(t, "Vera was killed in the night.", room.Narrative)
		assert.True(t, room.PhaseEnds.IsZero())
	})
}

func TestPostgresRepo_Players(t *testing.T) {
	ctx := context.Background()

	t.Run("GetPlayer_NotFound", func(t *testing.T) {
		_, err := repo.GetPlayer(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("SavePlayer_And_List_Ordered", func(t *testing.T) {
		for _, id := range []string{"p3", "p1", "p2"} {
			err := repo.SavePlayer(ctx, domain.Player{
				ID: id, RoomID: "BBBB", Name: "name-" + id, Alive: true, Online: true,
			})
			require.NoError(t, err)
		}
		// Upsert must keep the original position.
		err := repo.SavePlayer(ctx, domain.Player{
			ID: "p3", RoomID: "BBBB", Name: "renamed", Role: domain.RoleMafia, Alive: true, Online: true,
		})
		require.NoError(t, err)

		players, err := repo.ListPlayersByRoom(ctx, "BBBB")
		require.NoError(t, err)
		require.Len(t, players, 3)
		assert.Equal(t, "p3", players[0].ID)
		assert.Equal(t, "renamed", players[0].Name)
		assert.Equal(t, domain.RoleMafia, players[0].Role)
	})

	t.Run("GetPlayerByConn", func(t *testing.T) {
		err := repo.SavePlayer(ctx, domain.Player{
			ID: "p9", RoomID: "BBBB", ConnID: "conn-9", Alive: true, Online: true,
		})
		require.NoError(t, err)

		p, err := repo.GetPlayerByConn(ctx, "conn-9")
		require.NoError(t, err)
		assert.Equal(t, "p9", p.ID)

		_, err = repo.GetPlayerByConn(ctx, "conn-none")
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("ResetRoundActions", func(t *testing.T) {
		err := repo.SavePlayer(ctx, domain.Player{
			ID: "p1", RoomID: "BBBB", ActionTarget: "p2", Acted: true, Alive: true, Online: true,
		})
		require.NoError(t, err)
		err = repo.SavePlayer(ctx, domain.Player{
			ID: "q1", RoomID: "CCCC", ActionTarget: "q2", Acted: true, Alive: true, Online: true,
		})
		require.NoError(t, err)

		require.NoError(t, repo.ResetRoundActions(ctx, "BBBB"))

		p1, err := repo.GetPlayer(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, p1.ActionTarget)
		assert.False(t, p1.Acted)

		q1, err := repo.GetPlayer(ctx, "q1")
		require.NoError(t, err)
		assert.Equal(t, "q2", q1.ActionTarget, "other rooms are untouched")
	})

	t.Run("DeleteAll", func(t *testing.T) {
		require.NoError(t, repo.DeleteAll(ctx))

		_, err := repo.GetRoom(ctx, "AAAA")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
		_, err = repo.GetPlayer(ctx, "p1")
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})
}
