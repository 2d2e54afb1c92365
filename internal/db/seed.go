package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedConnectionTypes = []string{"dating", "friendship", "study", "sports", "nightlife"}
	seedNames           = []string{
		"Noa", "Yael", "Maya", "Tamar", "Shira", "Lior", "Dana", "Roni", "Avigail", "Hila",
		"Itai", "Omer", "Yonatan", "Daniel", "Ariel", "Eitan", "Noam", "Amit", "Guy", "Tomer",
	}
)

// SeedTestData resets the database and populates it with demo users and interactions.
//
// Behavior:
//  1. Clears messages, chats, interactions and users.
//  2. Creates 20 users "1".."20" (10 female, 10 male), ages 19-38, with 1-3 connection types.
//  3. Generates random interactions (~70% positive); every 3rd pair is made mutual and
//     gets a chat, mirroring what a reciprocal like does at runtime.
//
// Works on MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "chats", "interactions", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Info("cleared existing data")

	// --- Seed Users ---
	now := Now()
	users := make([]User, 0, len(seedNames))
	for i, name := range seedNames {
		gender, prefers := "female", "male"
		if i >= 10 {
			gender, prefers = "male", "female"
		}
		birth := now.AddDate(-(19 + r.Intn(20)), -r.Intn(12), -r.Intn(28))

		types := pick(r, seedConnectionTypes, 1+r.Intn(3))
		lat, lng := 32.0+r.Float64(), 34.7+r.Float64()*0.5

		users = append(users, User{
			ID:              fmt.Sprintf("%d", i+1),
			Name:            name,
			BirthDate:       &birth,
			Gender:          gender,
			ConnectionTypes: datatypes.JSONSlice[string](types),
			PreferredMatch:  datatypes.JSONSlice[string]{prefers},
			Latitude:        &lat,
			Longitude:       &lng,
			Active:          true,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	// --- Seed Interactions ---
	counter := 0
	for _, actor := range users {
		for j := 0; j < 8; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			kind := InteractionReject
			if r.Intn(100) < 70 {
				kind = InteractionLike
				if r.Intn(4) == 0 {
					kind = InteractionFriend
				}
			}

			if counter%3 == 0 {
				kind = InteractionLike
				if err := seedInteraction(db, target.ID, actor.ID, InteractionLike); err != nil {
					return err
				}
				chat := Chat{
					ID:      uuid.NewString(),
					User1ID: actor.ID,
					User2ID: target.ID,
					PairKey: PairKey(actor.ID, target.ID),
				}
				if err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "pair_key"}},
					DoNothing: true,
				}).Create(&chat).Error; err != nil {
					return fmt.Errorf("failed to seed chat: %w", err)
				}
			}

			if err := seedInteraction(db, actor.ID, target.ID, kind); err != nil {
				return err
			}
			counter++
		}
	}
	log.Info("seeded interactions", "count", counter)

	return nil
}

func seedInteraction(db *gorm.DB, from, to string, kind InteractionType) error {
	in := Interaction{ID: uuid.NewString(), UserID: from, TargetID: to, Type: kind}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}, {Name: "type"}},
		DoNothing: true,
	}).Create(&in).Error; err != nil {
		return fmt.Errorf("failed to seed interaction: %w", err)
	}
	return nil
}

func pick(r *rand.Rand, from []string, n int) []string {
	idx := r.Perm(len(from))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, from[i])
	}
	return out
}
