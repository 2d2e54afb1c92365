package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/repository"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

// setupTestDB opens an isolated in-memory DB per test and migrates all models.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        db.Now,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func birth(years int) *time.Time {
	t := time.Now().UTC().AddDate(-years, 0, -1).Truncate(24 * time.Hour)
	return &t
}

func seedUsers(t *testing.T, gdb *gorm.DB, users ...db.User) {
	t.Helper()
	for i := range users {
		users[i].Active = true
	}
	require.NoError(t, gdb.Create(&users).Error)
}

// --- users ---

func TestQueryCandidates_Filters(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedUsers(t, gdb,
		db.User{ID: "1", Name: "Requester", Gender: "male", BirthDate: birth(30)},
		db.User{ID: "2", Name: "Young", Gender: "female", BirthDate: birth(20)},
		db.User{ID: "3", Name: "Fits", Gender: "Female", BirthDate: birth(28)},
		db.User{ID: "4", Name: "Male", Gender: "male", BirthDate: birth(28)},
		db.User{ID: "5", Name: "NoBirth", Gender: "female"},
		db.User{ID: "6", Name: "Hidden", Gender: "female", BirthDate: birth(28)},
	)
	require.NoError(t, repo.Update(ctx, "6", map[string]any{"active": false}))

	before := time.Now().UTC().AddDate(-25, 0, 0)
	users, err := repo.QueryCandidates(ctx, repository.CandidateQuery{
		ExcludeIDs: []string{"1"},
		BornBefore: &before,
		Genders:    []string{"female"},
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "3", users[0].ID)

	// no filters: everyone active but the requester
	users, err = repo.QueryCandidates(ctx, repository.CandidateQuery{ExcludeIDs: []string{"1"}})
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestUserJSONColumnsRoundTrip(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedUsers(t, gdb, db.User{
		ID:              "1",
		Name:            "Noa",
		ConnectionTypes: datatypes.JSONSlice[string]{"dating", "study"},
		PreferredMatch:  datatypes.JSONSlice[string]{"male"},
	})

	u, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dating", "study"}, []string(u.ConnectionTypes))
	assert.Equal(t, []string{"male"}, []string(u.PreferredMatch))
}

func TestSearchByName(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedUsers(t, gdb,
		db.User{ID: "1", Name: "Noam"},
		db.User{ID: "2", Name: "Noa"},
		db.User{ID: "3", Name: "Dana"},
		db.User{ID: "4", Name: "100%_real"},
	)

	users, err := repo.SearchByName(ctx, "NO", "1", 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "2", users[0].ID)

	users, err = repo.SearchByName(ctx, "%_", "1", 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "4", users[0].ID)
}

func TestUpdate_Missing(t *testing.T) {
	repo := repository.NewUserRepository(setupTestDB(t))
	err := repo.Update(context.Background(), "nope", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateAndGetMany(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, &db.User{ID: "1", Name: "Avi", Active: true}))
	require.NoError(t, repo.Create(ctx, &db.User{ID: "2", Name: "Noa", Active: false}))

	err := repo.Create(ctx, &db.User{ID: "1", Name: "Again"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	users, err := repo.GetMany(ctx, []string{"1", "2", "404"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Avi", users["1"].Name)
	// an explicit false is stored, not replaced by the column default
	assert.False(t, users["2"].Active)

	empty, err := repo.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// --- interactions ---

func TestRecord_Idempotent(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewInteractionRepository(gdb)

	created, err := repo.Record(ctx, "1", "2", db.InteractionLike)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Record(ctx, "1", "2", db.InteractionLike)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	gdb.Model(&db.Interaction{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// a different type is a different edge
	created, err = repo.Record(ctx, "1", "2", db.InteractionFriend)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestHasAny(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInteractionRepository(setupTestDB(t))

	_, _ = repo.Record(ctx, "2", "1", db.InteractionFriend)

	ok, err := repo.HasAny(ctx, "2", "1", db.InteractionLike)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HasAny(ctx, "2", "1", db.InteractionLike, db.InteractionFriend)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasAny(ctx, "1", "2", db.InteractionFriend)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingLikers(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInteractionRepository(setupTestDB(t))

	_, _ = repo.Record(ctx, "1", "99", db.InteractionLike)   // pending
	_, _ = repo.Record(ctx, "1", "99", db.InteractionFriend) // same actor, shown once
	_, _ = repo.Record(ctx, "2", "99", db.InteractionLike)   // reciprocated below
	_, _ = repo.Record(ctx, "99", "2", db.InteractionLike)
	_, _ = repo.Record(ctx, "3", "99", db.InteractionLike) // rejected below
	_, _ = repo.Record(ctx, "99", "3", db.InteractionReject)
	_, _ = repo.Record(ctx, "4", "99", db.InteractionFriend) // answered with a like
	_, _ = repo.Record(ctx, "99", "4", db.InteractionLike)

	// any positive answer reciprocates
	likers, next, err := repo.PendingLikers(ctx, "99", false, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likers, 1)
	assert.Equal(t, "1", likers[0].UserID)

	// same-type: user 4's friend request is still open
	likers, _, err = repo.PendingLikers(ctx, "99", true, nil, 10)
	require.NoError(t, err)
	ids := []string{}
	for _, l := range likers {
		ids = append(ids, l.UserID)
	}
	assert.ElementsMatch(t, []string{"1", "4"}, ids)

	count, err := repo.CountPendingLikers(ctx, "99", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPendingLikers_Pagination(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewInteractionRepository(gdb)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		require.NoError(t, gdb.Create(&db.Interaction{
			ID:        fmt.Sprintf("i-%d", i),
			UserID:    fmt.Sprintf("%d", i),
			TargetID:  "99",
			Type:      db.InteractionLike,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	page1, next, err := repo.PendingLikers(ctx, "99", false, nil, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 2)
	assert.Equal(t, "5", page1[0].UserID)
	assert.Equal(t, "4", page1[1].UserID)

	page2, next, err := repo.PendingLikers(ctx, "99", false, next, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "3", page2[0].UserID)

	page3, next, err := repo.PendingLikers(ctx, "99", false, next, 2)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page3, 1)
	assert.Equal(t, "1", page3[0].UserID)

	bad := "not-a-token"
	_, _, err = repo.PendingLikers(ctx, "99", false, &bad, 2)
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)
}

func TestTargetsOfAndPositive(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInteractionRepository(setupTestDB(t))

	_, _ = repo.Record(ctx, "1", "2", db.InteractionLike)
	_, _ = repo.Record(ctx, "1", "2", db.InteractionFriend)
	_, _ = repo.Record(ctx, "1", "3", db.InteractionReject)
	_, _ = repo.Record(ctx, "4", "1", db.InteractionLike)

	targets, err := repo.TargetsOf(ctx, "1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2", "3"}, targets)

	out, in, err := repo.Positive(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, out, 2)
	require.Len(t, in, 1)
	assert.Equal(t, "4", in[0].UserID)
}

// --- chats ---

func TestFindOrCreate_SymmetricAndIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewChatRepository(gdb)

	first, created, err := repo.FindOrCreate(ctx, "1", "2")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "1", first.User1ID)
	assert.Equal(t, "2", first.User2ID)
	assert.Equal(t, "", first.LastMessage)
	assert.Nil(t, first.LastMessageAt)

	again, created, err := repo.FindOrCreate(ctx, "1", "2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	reversed, created, err := repo.FindOrCreate(ctx, "2", "1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, reversed.ID)

	var count int64
	gdb.Model(&db.Chat{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestFindOrCreate_ConcurrentFirstContact fans out first contact from both
// sides at once; every caller must get the one chat.
func TestFindOrCreate_ConcurrentFirstContact(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	repo := repository.NewChatRepository(gdb)

	const callers = 20
	var (
		wg      sync.WaitGroup
		ids     = make([]string, callers)
		created = make([]bool, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "1", "2"
			if i%2 == 1 {
				a, b = b, a
			}
			chat, ok, err := repo.FindOrCreate(ctx, a, b)
			errs[i], created[i] = err, ok
			if chat != nil {
				ids[i] = chat.ID
			}
		}(i)
	}
	wg.Wait()

	inserted := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)

	var count int64
	require.NoError(t, gdb.Model(&db.Chat{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestChatPairIsUniqueInStore(t *testing.T) {
	gdb := setupTestDB(t)
	require.NoError(t, gdb.Create(&db.Chat{ID: "a", User1ID: "1", User2ID: "2", PairKey: db.PairKey("1", "2")}).Error)

	// a racing plain insert for the reversed pair must be refused by the store
	err := gdb.Create(&db.Chat{ID: "b", User1ID: "2", User2ID: "1", PairKey: db.PairKey("2", "1")}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestListForUser_ActiveOnly(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	chats := repository.NewChatRepository(gdb)
	msgs := repository.NewMessageRepository(gdb)

	withMsg, _, err := chats.FindOrCreate(ctx, "1", "2")
	require.NoError(t, err)
	_, _, err = chats.FindOrCreate(ctx, "3", "1")
	require.NoError(t, err)
	_, _, err = chats.FindOrCreate(ctx, "4", "5")
	require.NoError(t, err)

	_, err = msgs.Send(ctx, withMsg, "2", "hey", db.MessageText)
	require.NoError(t, err)

	all, err := chats.ListForUser(ctx, "1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, withMsg.ID, all[0].ID)

	active, err := chats.ListForUser(ctx, "1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, withMsg.ID, active[0].ID)
}

// --- messages ---

func TestSend_UpdatesChat(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	chats := repository.NewChatRepository(gdb)
	msgs := repository.NewMessageRepository(gdb)

	require.NoError(t, gdb.Create(&db.Chat{ID: "1", User1ID: "1", User2ID: "2", PairKey: db.PairKey("1", "2")}).Error)
	chat, err := chats.Get(ctx, "1")
	require.NoError(t, err)

	msg, err := msgs.Send(ctx, chat, "1", "שלום", db.MessageText)
	require.NoError(t, err)
	assert.Equal(t, "1", msg.ChatID)

	stored, err := chats.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "שלום", stored.LastMessage)
	assert.True(t, stored.User1Read)
	assert.False(t, stored.User2Read)
	require.NotNil(t, stored.LastMessageAt)

	// recipient opens the chat
	require.NoError(t, chats.MarkRead(ctx, stored, "2"))
	stored, _ = chats.Get(ctx, "1")
	assert.True(t, stored.User2Read)
}

func TestListAfter_Cursor(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	msgs := repository.NewMessageRepository(gdb)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		require.NoError(t, gdb.Create(&db.Message{
			ID:          fmt.Sprintf("m-%d", i),
			ChatID:      "c",
			SenderID:    "1",
			Content:     fmt.Sprintf("msg %d", i),
			MessageType: db.MessageText,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	all, err := msgs.ListAfter(ctx, "c", pagination.Cursor{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)

	rest, err := msgs.ListAfter(ctx, "c", pagination.At(all[1].ID, all[1].CreatedAt), 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "m-3", rest[0].ID)

	latest, err := msgs.Latest(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "m-4", latest.ID)

	empty, err := msgs.Latest(ctx, "none")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
