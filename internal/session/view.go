package session

import (
	"slices"
	"time"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/puzzle"
)

// RoomView is the player-facing rendering of a puzzle. The answer and
// explanation are only present once the room is solved or force-revealed.
type RoomView struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description"`
	Clue         string   `json:"clue,omitempty"`
	Question     string   `json:"question"`
	Options      []string `json:"options,omitempty"`
	ItemsToOrder []string `json:"items_to_order,omitempty"`
	Lefts        []string `json:"lefts,omitempty"`
	Rights       []string `json:"rights,omitempty"`
	IsTimed      bool     `json:"is_timed,omitempty"`
	TimeLimit    int      `json:"time_limit,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
	Answer       string   `json:"answer,omitempty"`
}

// View is a point-in-time snapshot of a session.
type View struct {
	ID               string          `json:"id"`
	Topic            string          `json:"topic"`
	Narrative        string          `json:"narrative"`
	Sources          []domain.Source `json:"sources"`
	TotalRooms       int             `json:"total_rooms"`
	Phase            Phase           `json:"phase"`
	RoomIndex        int             `json:"room_index"`
	RoomAttempts     int             `json:"room_attempts"`
	MaxAttempts      int             `json:"max_attempts"`
	Score            float64         `json:"score"`
	TotalAttempts    int             `json:"total_attempts"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Room             *RoomView       `json:"room,omitempty"`
	Input            *Transient      `json:"input,omitempty"`
	Report           *domain.Report  `json:"report,omitempty"`
}

// View renders the session at now. Viewing counts as player activity.
func (s *Session) View(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.ID,
		Topic:         s.set.Topic,
		Narrative:     s.set.Narrative,
		Sources:       []domain.Source{},
		TotalRooms:    s.set.TotalRooms,
		Phase:         s.phase,
		RoomIndex:     s.room,
		RoomAttempts:  s.roomAttempts,
		MaxAttempts:   s.opts.ForcedRevealAttempts,
		Score:         s.progress.Score,
		TotalAttempts: s.progress.TotalAttempts,
	}
	s.touch()
	v.Sources = append(v.Sources, s.set.Sources...)
	if left := s.opts.Countdown - now.Sub(s.progress.StartTimestamp); left > 0 {
		v.RemainingSeconds = int(left / time.Second)
	}
	if s.report != nil {
		r := *s.report
		v.Report = &r
	}
	if s.phase == PhaseIntro || s.phase == PhaseFinished {
		return v
	}

	rv := roomView(s.set.Puzzles[s.room], s.phase)
	v.Room = &rv
	in := s.transient.clone()
	v.Input = &in
	return v
}

func roomView(p domain.Puzzle, phase Phase) RoomView {
	rv := RoomView{
		ID:          p.ID,
		Type:        string(p.Type),
		Title:       p.Title,
		Description: p.Description,
		Clue:        p.Clue,
		Question:    p.Question,
		IsTimed:     p.IsTimed,
		TimeLimit:   p.TimeLimit,
		ImageURL:    p.ImageURL,
	}
	switch p.Type {
	case domain.MultipleChoice:
		rv.Options = slices.Clone(p.Options)
	case domain.Ordering:
		rv.ItemsToOrder = slices.Clone(p.ItemsToOrder)
	case domain.Matching:
		for _, mp := range p.MatchingPairs {
			rv.Lefts = append(rv.Lefts, mp.Left)
			rv.Rights = append(rv.Rights, mp.Right)
		}
		// Pair order would give the answer away.
		slices.Sort(rv.Rights)
	}
	if phase == PhaseCorrect || phase == PhaseForcedReveal {
		rv.Explanation = p.Explanation
		rv.Answer = puzzle.Answer(p)
	}
	return rv
}
