package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

type PollType string

const (
	PollSingle   PollType = "single"
	PollMultiple PollType = "multiple"
)

// ParsePollType は空文字を single として扱う。
func ParsePollType(value string) (PollType, error) {
	switch PollType(strings.ToLower(strings.TrimSpace(value))) {
	case "", PollSingle:
		return PollSingle, nil
	case PollMultiple:
		return PollMultiple, nil
	}
	return "", apperr.Validation("Invalid poll type")
}

// Option は作成時に固定IDを割り当てた選択肢。
type Option struct {
	ID    string
	Text  string
	Votes int
}

// Voter は投票台帳の1行。UserID は台帳内で一意。
type Voter struct {
	UserID     string
	Selections []int
	VotedAt    time.Time
}

type Poll struct {
	ID        string
	Question  string
	Type      PollType
	Options   []Option
	CreatedBy string
	Creator   *Person
	CreatedAt time.Time
	ExpiresAt *time.Time
	Voters    []Voter
}

// NewPoll は投票数0の選択肢を持つ投票を生成する。newID は選択肢IDの採番に使う。
func NewPoll(question string, optionTexts []string, pollType PollType, expiresAt *time.Time, creatorID string, now time.Time, newID func() string) (*Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.Validation("Question is required")
	}
	if len(optionTexts) < 2 {
		return nil, apperr.Validation("At least two options are required")
	}
	options := make([]Option, 0, len(optionTexts))
	for _, text := range optionTexts {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, apperr.Validation("Option text cannot be empty")
		}
		options = append(options, Option{ID: newID(), Text: text})
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, apperr.Validation("Expiry must be in the future")
	}
	return &Poll{
		Question:  question,
		Type:      pollType,
		Options:   options,
		CreatedBy: creatorID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Voters:    []Voter{},
	}, nil
}

func (p Poll) HasVoted(userID string) bool {
	for _, v := range p.Voters {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

func (p Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// ResolveSelections は選択肢のIDまたは本文をインデックスに変換する。
// IDを優先し、重複指定は1つにまとめる。解決できない最初の値でエラーにする。
func (p Poll) ResolveSelections(selected []string) ([]int, error) {
	indices := make([]int, 0, len(selected))
	seen := make(map[int]struct{}, len(selected))
	for _, raw := range selected {
		value := strings.TrimSpace(raw)
		idx := p.optionIndex(value)
		if idx < 0 {
			return nil, apperr.Validation("Invalid option: %s", raw)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return nil, apperr.Validation("No options selected")
	}
	return indices, nil
}

func (p Poll) optionIndex(value string) int {
	if value == "" {
		return -1
	}
	for i, opt := range p.Options {
		if opt.ID == value {
			return i
		}
	}
	for i, opt := range p.Options {
		if opt.Text == value {
			return i
		}
	}
	return -1
}

// ApplyVote は台帳へ追記し選択された選択肢を1票ずつ加算する。重複確認は呼び出し側の責務。
func (p *Poll) ApplyVote(voter Voter) {
	for _, idx := range voter.Selections {
		if idx >= 0 && idx < len(p.Options) {
			p.Options[idx].Votes++
		}
	}
	p.Voters = append(p.Voters, voter)
}
