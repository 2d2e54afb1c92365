package api

import (
	"time"

	"github.com/unimeet/match-core/internal/db"
	"github.com/unimeet/match-core/internal/matching"
	"github.com/unimeet/match-core/internal/utils/pagination"
)

// ProfileFromUser renders a user. now drives the age field.
func ProfileFromUser(u *db.User, now time.Time) *UserProfile {
	p := &UserProfile{
		ID:              u.ID,
		Name:            u.Name,
		Gender:          u.Gender,
		ConnectionTypes: nonNil(u.ConnectionTypes),
		PreferredMatch:  nonNil(u.PreferredMatch),
		Image:           u.Image,
		Active:          u.Active,
	}
	if u.BirthDate != nil {
		p.BirthDate = u.BirthDate.UTC().Format(time.DateOnly)
		age := matching.Age(*u.BirthDate, now)
		p.Age = &age
	}
	if u.Latitude != nil && u.Longitude != nil {
		p.Location = &Location{Lat: *u.Latitude, Lng: *u.Longitude}
	}
	return p
}

func CandidateFromMatch(c matching.Candidate, now time.Time) *Candidate {
	return &Candidate{
		User:                  ProfileFromUser(&c.User, now),
		SharedConnectionTypes: nonNil(c.SharedConnectionTypes),
		SharedCount:           c.SharedCount,
		DistanceKm:            c.DistanceKm,
	}
}

func LikerFromInteraction(i db.Interaction) *Liker {
	return &Liker{UserID: i.UserID, Type: string(i.Type), UnixTimestamp: i.CreatedAt.UnixMilli()}
}

func MatchFromPair(m matching.Match) *Match {
	return &Match{UserID: m.UserID, ChatID: m.ChatID, UnixTimestamp: m.MatchedAt.UnixMilli()}
}

func ChatFromModel(c *db.Chat) *Chat {
	out := &Chat{
		ID:          c.ID,
		User1ID:     c.User1ID,
		User2ID:     c.User2ID,
		LastMessage: c.LastMessage,
		User1Read:   c.User1Read,
		User2Read:   c.User2Read,
	}
	if c.LastMessageAt != nil {
		out.UpdatedAt = c.LastMessageAt.UnixMilli()
	}
	return out
}

func MessageFromModel(m *db.Message) *Message {
	return &Message{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		MessageType: string(m.MessageType),
		CreatedAt:   m.CreatedAt.UnixMilli(),
		Cursor:      pagination.MustEncode(pagination.At(m.ID, m.CreatedAt)),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
